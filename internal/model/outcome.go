package model

import (
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// FetchMeta contains HTTP metadata for one heading request
type FetchMeta struct {
	StatusCode int  `json:"status_code"`
	Bytes      int  `json:"bytes"`
	FromCache  bool `json:"from_cache"`
}

// FetchOutcome is the recorded result of one (compound, heading) request.
// It is produced for every request, including failed ones.
type FetchOutcome struct {
	CID    CID
	Source Source
	Meta   FetchMeta

	// Content is the decoded response body. It holds the error object
	// {"error":{"message":...}} for failures and is absent when a
	// successful response could not be decoded.
	Content    tree.Value
	HasContent bool
}

// OK reports whether the outcome carries a successful, decoded response.
func (o FetchOutcome) OK() bool {
	return o.Meta.StatusCode == 200 && o.HasContent
}

// ErrorMessage returns the message of an error-object body, if any.
func (o FetchOutcome) ErrorMessage() (string, bool) {
	if !o.HasContent {
		return "", false
	}
	errObj, ok := o.Content.Get("error")
	if !ok {
		return "", false
	}
	return errObj.Field("message").Str()
}

// ErrorBody builds the {"error":{"message":msg}} object recorded for
// failed requests.
func ErrorBody(msg string) tree.Value {
	return tree.ObjectValue(tree.Member{
		Key: "error",
		Value: tree.ObjectValue(tree.Member{
			Key:   "message",
			Value: tree.StringValue(msg),
		}),
	})
}

// HeadingMeta converts the outcome into its persisted metadata row.
func (o FetchOutcome) HeadingMeta() HeadingMeta {
	return HeadingMeta{
		CID:      o.CID,
		Heading:  string(o.Source),
		HTTPCode: o.Meta.StatusCode,
		Bytes:    o.Meta.Bytes,
	}
}
