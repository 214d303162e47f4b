package errordata

import (
	"context"
)

type key struct{}

var errorDataKey key

// ErrorData holds the internal detail of a failed request. Clients only see
// a generic message; the logging middleware prints this.
type ErrorData struct {
	Message string
}

func WithErrorData(ctx context.Context) context.Context {
	ed := &ErrorData{Message: ""}
	return context.WithValue(ctx, errorDataKey, ed)
}

func GetErrorData(ctx context.Context) *ErrorData {
	val := ctx.Value(errorDataKey)
	ed, ok := val.(*ErrorData)
	if !ok {
		return nil
	}
	return ed
}

func (ed *ErrorData) SetMessage(msg string) {
	ed.Message = msg
}

func (ed *ErrorData) HasMessage() bool {
	return ed.Message != ""
}

// Record stores err's text on ctx when error data is attached.
func Record(ctx context.Context, err error) {
	if ed := GetErrorData(ctx); ed != nil && err != nil {
		ed.SetMessage(err.Error())
	}
}
