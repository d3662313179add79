package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		if userID := GetUserID(context.Background()); userID != "" {
			t.Errorf("Expected empty string, got %s", userID)
		}
	})

	t.Run("with user ID", func(t *testing.T) {
		t.Parallel()
		ctx := WithUserID(context.Background(), "1254459154682919")
		if got := GetUserID(ctx); got != "1254459154682919" {
			t.Errorf("Expected userID 1254459154682919, got %s", got)
		}
		if got := MustGetUserID(ctx); got != "1254459154682919" {
			t.Errorf("Expected MustGetUserID to return 1254459154682919, got %s", got)
		}
	})
}

func TestMustGetUserID_Panic(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustGetUserID to panic on empty context")
		}
	}()

	MustGetUserID(context.Background())
}

func TestPageIDAndEventKind(t *testing.T) {
	t.Parallel()

	ctx := WithPageID(context.Background(), "PAGE_ID")
	ctx = WithEventKind(ctx, "postback")

	if got := GetPageID(ctx); got != "PAGE_ID" {
		t.Errorf("Expected PAGE_ID, got %s", got)
	}
	if got := GetEventKind(ctx); got != "postback" {
		t.Errorf("Expected postback, got %s", got)
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("Expected no request ID on empty context")
	}

	ctx := WithRequestID(context.Background(), "req-123")
	requestID, ok := GetRequestID(ctx)
	if !ok || requestID != "req-123" {
		t.Errorf("Expected req-123, got %q (ok=%v)", requestID, ok)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithUserID(parent, "user-1")
	parent = WithPageID(parent, "page-1")
	parent = WithRequestID(parent, "req-1")
	parent = WithEventKind(parent, "message")
	cancel()

	detached := PreserveTracing(parent)

	if detached.Err() != nil {
		t.Errorf("Expected detached context to ignore parent cancellation, got %v", detached.Err())
	}
	if _, ok := detached.Deadline(); ok {
		t.Error("Expected detached context to have no deadline")
	}
	if GetUserID(detached) != "user-1" {
		t.Error("user ID not preserved")
	}
	if GetPageID(detached) != "page-1" {
		t.Error("page ID not preserved")
	}
	if id, _ := GetRequestID(detached); id != "req-1" {
		t.Error("request ID not preserved")
	}
	if GetEventKind(detached) != "message" {
		t.Error("event kind not preserved")
	}
}
