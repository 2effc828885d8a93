package goroutine

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGoWithContext_RecoversPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	rh := NewRecoveryHandler(log, time.Second)

	done := make(chan struct{})
	rh.SafeGoWithContext("render", func(ctx context.Context) {
		defer close(done)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		panic("boom")
	})

	<-done
	require.Eventually(t, func() bool { return hook.LastEntry() != nil }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "render", hook.LastEntry().Data["task"])
}

func TestSafeGo(t *testing.T) {
	done := make(chan struct{})
	SafeGo(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("горутина не запустилась")
	}
}
