package graph

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes chunk-graph lookup failures.
type ErrorCode string

const (
	// ErrCodeMissingChunk indicates a chunk key with no chunk behind it.
	ErrCodeMissingChunk ErrorCode = "MISSING_CHUNK"

	// ErrCodeMissingChunkGroup indicates a chunk-group key with no group behind it.
	ErrCodeMissingChunkGroup ErrorCode = "MISSING_CHUNK_GROUP"

	// ErrCodeMissingEntryPoint indicates a chunk expected to carry an entry module has none.
	ErrCodeMissingEntryPoint ErrorCode = "MISSING_ENTRY_POINT"

	// ErrCodeMissingRuntimeChunk indicates a chunk group whose runtime chunk cannot be resolved.
	ErrCodeMissingRuntimeChunk ErrorCode = "MISSING_RUNTIME_CHUNK"

	// ErrCodeMissingModule indicates a module key with no module behind it.
	ErrCodeMissingModule ErrorCode = "MISSING_MODULE"
)

// Error reports an inconsistent chunk graph.
//
// Every Error is fatal to the compilation pass: it means an upstream
// invariant is broken and the graph is unsafe to assemble.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Chunk is the chunk the lookup was made for, if any.
	Chunk ChunkKey

	// ChunkGroup is the chunk group the lookup was made for, if any.
	ChunkGroup ChunkGroupKey

	// Module is the module the lookup was made for, if any.
	Module ModuleKey
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Chunk != "" && e.ChunkGroup != "":
		return fmt.Sprintf("%s: %s (chunk=%s, group=%s)", e.Code, e.Message, e.Chunk, e.ChunkGroup)
	case e.Chunk != "":
		return fmt.Sprintf("%s: %s (chunk=%s)", e.Code, e.Message, e.Chunk)
	case e.ChunkGroup != "":
		return fmt.Sprintf("%s: %s (group=%s)", e.Code, e.Message, e.ChunkGroup)
	case e.Module != "":
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, e.Message, e.Module)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMissingChunkError creates an Error for an unresolvable chunk key.
func NewMissingChunkError(key ChunkKey) *Error {
	return &Error{Code: ErrCodeMissingChunk, Message: "chunk not found", Chunk: key}
}

// NewMissingChunkGroupError creates an Error for an unresolvable chunk-group key.
func NewMissingChunkGroupError(key ChunkGroupKey) *Error {
	return &Error{Code: ErrCodeMissingChunkGroup, Message: "chunk group not found", ChunkGroup: key}
}

// NewMissingEntryPointError creates an Error for a chunk without entry modules.
func NewMissingEntryPointError(chunk ChunkKey) *Error {
	return &Error{Code: ErrCodeMissingEntryPoint, Message: "chunk has no entry point", Chunk: chunk}
}

// NewMissingRuntimeChunkError creates an Error for a group whose runtime chunk is unresolvable.
func NewMissingRuntimeChunkError(runtime ChunkKey, group ChunkGroupKey) *Error {
	return &Error{Code: ErrCodeMissingRuntimeChunk, Message: "runtime chunk not found", Chunk: runtime, ChunkGroup: group}
}

// NewMissingModuleError creates an Error for an unresolvable module key.
func NewMissingModuleError(key ModuleKey) *Error {
	return &Error{Code: ErrCodeMissingModule, Message: "module not found", Module: key}
}

// Is reports whether target is an *Error with the same code, so errors.Is
// matches by kind. It walks every branch of a joined error, which is how
// Build reports several dangling references at once.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func hasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// IsMissingChunk returns true if err is, or wraps, a MISSING_CHUNK error.
func IsMissingChunk(err error) bool { return hasCode(err, ErrCodeMissingChunk) }

// IsMissingChunkGroup returns true if err is, or wraps, a MISSING_CHUNK_GROUP error.
func IsMissingChunkGroup(err error) bool { return hasCode(err, ErrCodeMissingChunkGroup) }

// IsMissingEntryPoint returns true if err is, or wraps, a MISSING_ENTRY_POINT error.
func IsMissingEntryPoint(err error) bool { return hasCode(err, ErrCodeMissingEntryPoint) }

// IsMissingRuntimeChunk returns true if err is, or wraps, a MISSING_RUNTIME_CHUNK error.
func IsMissingRuntimeChunk(err error) bool { return hasCode(err, ErrCodeMissingRuntimeChunk) }

// IsMissingModule returns true if err is, or wraps, a MISSING_MODULE error.
func IsMissingModule(err error) bool { return hasCode(err, ErrCodeMissingModule) }
