package codec

import "testing"

type payload struct {
	Name  string
	Count int
}

func TestJSONRoundTrip(t *testing.T) {
	var c Codec = JSON{}
	in := payload{Name: "widget", Count: 3}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	var out payload
	if err := c.Decode(b, &out); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

type flakyCodec struct {
	failuresLeft int
}

func (f *flakyCodec) Encode(v any) ([]byte, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errTransient
	}
	return JSON{}.Encode(v)
}

func (f *flakyCodec) Decode(data []byte, v any) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return errTransient
	}
	return JSON{}.Decode(data, v)
}

type transientError struct{}

func (transientError) Error() string { return "transient" }

var errTransient = transientError{}

func TestRetryingRecoversFromTransientFailure(t *testing.T) {
	flaky := &flakyCodec{failuresLeft: 2}
	r := Retrying{Codec: flaky}
	b, err := r.Encode(payload{Name: "x", Count: 1})
	if err != nil {
		t.Fatalf("Encode() = %v, want eventual success", err)
	}
	var out payload
	if err := JSON{}.Decode(b, &out); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if out.Name != "x" {
		t.Fatalf("got %+v", out)
	}
}
