// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeExtractReadFailure Code = "extract.read.failure"
	CodeExtractEmptySource Code = "extract.source.empty_source"

	CodeIndexIngestEmptySource  Code = "index.ingest.empty_source"
	CodeIndexEmbedFailure       Code = "index.embed.failure"
	CodeIndexStoreFailure       Code = "index.store.failure"
	CodeIndexBackendUnsupported Code = "index.backend.unsupported"
	CodeIndexSourceNotFound     Code = "index.source.not_found"

	CodeEmbeddingUpstreamFailure     Code = "embedding.upstream.failure"
	CodeEmbeddingVectorInvalid       Code = "embedding.vector.invalid"
	CodeEmbeddingProviderUnsupported Code = "embedding.provider.unsupported"

	CodeEngineUpstreamFailure     Code = "engine.upstream.failure"
	CodeEngineProviderUnsupported Code = "engine.provider.unsupported"

	CodeChatEngineNotReady        Code = "chat.engine.not_ready"
	CodeChatEngineInitFailure     Code = "chat.engine.init.failure"
	CodeChatTurnBusy              Code = "chat.turn.busy"
	CodeChatTurnInvalidInput      Code = "chat.turn.invalid_input"
	CodeChatTurnGenerationFailure Code = "chat.turn.generation_failure"
	CodeChatTurnCancelled         Code = "chat.turn.cancelled"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerInternalFailure Code = "server.internal.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSource(value string) Attr {
	return Field("source_id", value)
}

func FieldModel(value string) Attr {
	return Field("model", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsEmptySource reports whether the error marks a document whose extracted
// text produced nothing indexable.
func IsEmptySource(err error) bool {
	return reason(CodeOf(err)) == "empty_source"
}

func IsNotReady(err error) bool {
	return reason(CodeOf(err)) == "not_ready"
}

func IsBusy(err error) bool {
	return reason(CodeOf(err)) == "busy"
}

func IsCancelled(err error) bool {
	return reason(CodeOf(err)) == "cancelled"
}

func IsGenerationFailure(err error) bool {
	return reason(CodeOf(err)) == "generation_failure"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// IsEmbeddingFailure reports whether the error originated in embedding
// computation, whether raised by the index or an embedder adapter.
func IsEmbeddingFailure(err error) bool {
	return HasCode(err, CodeIndexEmbedFailure) ||
		HasCode(err, CodeEmbeddingUpstreamFailure) ||
		HasCode(err, CodeEmbeddingVectorInvalid)
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsEmptySource(err):
		return http.StatusUnprocessableEntity
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsBusy(err):
		return http.StatusConflict
	case IsNotReady(err):
		return http.StatusServiceUnavailable
	case IsUpstreamFailure(err), IsGenerationFailure(err), IsEmbeddingFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
