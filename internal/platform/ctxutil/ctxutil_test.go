package ctxutil

import (
	"context"
	"reflect"
	"testing"
)

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("background: got=%v", got)
	}
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithAuthData(ctx, &AuthData{Subject: "scheduler"})
	want := []interface{}{"trace_id", "t1", "request_id", "r1", "subject", "scheduler"}
	if got := LogFields(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if GetAuthData(WithTraceData(context.Background(), &TraceData{})) != nil {
		t.Fatalf("auth data must be absent")
	}
}
