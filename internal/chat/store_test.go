package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/agi/internal/api"
	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/views"
)

func newTestStore(gw api.Gateway, opts ...Option) (*Store, *views.Controller) {
	nav := views.NewController()
	opts = append([]Option{WithNavigator(nav)}, opts...)
	return NewStore(gw, config.DefaultSettings, opts...), nav
}

// seed fills the session with n alternating entries
func seed(t *testing.T, s *Store, n int) {
	t.Helper()
	for s.Len() < n {
		require.NoError(t, s.SendMessage(context.Background(), fmt.Sprintf("msg %d", s.Len())))
	}
	require.Equal(t, n, s.Len())
}

func TestSendMessage_Success(t *testing.T) {
	gw := &api.MockGateway{Reply: "Hi there"}
	s, nav := newTestStore(gw)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	assert.Equal(t, []models.Message{
		{Role: models.RoleUser, Text: "Hello"},
		{Role: models.RoleModel, Text: "Hi there"},
	}, s.Messages())
	assert.False(t, s.Pending())
	assert.Equal(t, views.Conversation, nav.Active())
	assert.NoError(t, s.LastError())
}

func TestSendMessage_Failure(t *testing.T) {
	gw := &api.MockGateway{Err: apierrors.NewAPIError(500, "ep", "boom")}
	s, _ := newTestStore(gw)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	assert.Equal(t, []models.Message{
		{Role: models.RoleUser, Text: "Hello"},
		{Role: models.RoleModel, Text: "Critical system failure in cognitive module."},
	}, s.Messages())
	assert.False(t, s.Pending())
	assert.Error(t, s.LastError())
}

func TestSendMessage_GrowsByTwo(t *testing.T) {
	for _, n := range []int{0, 2, 4, 6} {
		for _, fail := range []bool{false, true} {
			t.Run(fmt.Sprintf("n=%d fail=%v", n, fail), func(t *testing.T) {
				gw := &api.MockGateway{Reply: "ok"}
				s, _ := newTestStore(gw)
				seed(t, s, n)

				if fail {
					gw.Err = errors.New("down")
				}
				require.NoError(t, s.SendMessage(context.Background(), "next"))

				msgs := s.Messages()
				require.Len(t, msgs, n+2)
				assert.Equal(t, models.UserMessage("next"), msgs[n])
				want := "ok"
				if fail {
					want = FallbackReply
				}
				assert.Equal(t, models.ModelMessage(want), msgs[n+1])
				assert.False(t, s.Pending())
			})
		}
	}
}

func TestSendMessage_HistoryExcludesPrompt(t *testing.T) {
	gw := &api.MockGateway{Reply: "r"}
	s, _ := newTestStore(gw)

	require.NoError(t, s.SendMessage(context.Background(), "first"))
	require.NoError(t, s.SendMessage(context.Background(), "second"))

	calls := gw.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].History)
	assert.Equal(t, "second", calls[1].Prompt)
	assert.Equal(t, []models.Message{models.UserMessage("first"), models.ModelMessage("r")}, calls[1].History)
}

func TestSendMessage_UsesCurrentSettings(t *testing.T) {
	gw := &api.MockGateway{Reply: "r"}
	current := config.DefaultSettings()
	s := NewStore(gw, func() config.AppSettings { return current })

	current.Persona = config.PersonaCreative
	require.NoError(t, s.SendMessage(context.Background(), "hi"))
	assert.Equal(t, config.PersonaCreative, gw.LastCall().Settings.Persona)
}

func TestSendMessage_EmptyPromptRejected(t *testing.T) {
	gw := &api.MockGateway{Reply: "r"}
	s, nav := newTestStore(gw)

	for _, text := range []string{"", "   ", "\n\t"} {
		err := s.SendMessage(context.Background(), text)
		assert.ErrorIs(t, err, apierrors.ErrEmptyPrompt)
	}
	assert.Zero(t, s.Len())
	assert.Zero(t, gw.CallCount())
	assert.Equal(t, views.Home, nav.Active())
}

func TestSendMessage_GatewayPanicStillSettles(t *testing.T) {
	gw := &api.MockGateway{PanicWith: "kaboom"}
	s, _ := newTestStore(gw)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, FallbackReply, msgs[1].Text)
	assert.False(t, s.Pending())
	assert.ErrorIs(t, s.LastError(), apierrors.ErrGatewayPanic)
}

func TestSendMessage_Timeout(t *testing.T) {
	gw := &api.MockGateway{Block: make(chan struct{})}
	s, _ := newTestStore(gw, WithTimeout(10*time.Millisecond))

	require.NoError(t, s.SendMessage(context.Background(), "slow"))

	assert.Equal(t, FallbackReply, s.Messages()[1].Text)
	assert.False(t, s.Pending())
	assert.ErrorIs(t, s.LastError(), context.DeadlineExceeded)
}

func TestSendMessage_NilGateway(t *testing.T) {
	s, _ := newTestStore(nil)
	require.NoError(t, s.SendMessage(context.Background(), "hi"))
	assert.Equal(t, FallbackReply, s.Messages()[1].Text)
}

func TestBegin_SwitchesViewImmediately(t *testing.T) {
	for _, from := range []views.View{views.Home, views.Features, views.Examples, views.Safety} {
		t.Run(from.String(), func(t *testing.T) {
			gw := &api.MockGateway{Reply: "r"}
			s, nav := newTestStore(gw)
			nav.Navigate(from)

			req, err := s.Begin("hello")
			require.NoError(t, err)
			require.NotNil(t, req)

			// Before the gateway has been called
			assert.Equal(t, views.Conversation, nav.Active())
			assert.True(t, s.Pending())
			assert.Equal(t, []models.Message{models.UserMessage("hello")}, s.Messages())
			assert.Zero(t, gw.CallCount())

			reply, err := s.Execute(context.Background(), req)
			assert.Nil(t, s.Settle(req, reply, err))
			assert.Equal(t, views.Conversation, nav.Active())
			assert.False(t, s.Pending())
		})
	}
}

func TestBegin_QueuesWhilePending(t *testing.T) {
	gw := &api.MockGateway{ReplyFunc: func(prompt string, _ []models.Message, _ config.AppSettings) (string, error) {
		return "re: " + prompt, nil
	}}
	s, _ := newTestStore(gw)

	first, err := s.Begin("one")
	require.NoError(t, err)
	require.NotNil(t, first)

	queued, err := s.Begin("two")
	require.NoError(t, err)
	assert.Nil(t, queued)
	queued, err = s.Begin("three")
	require.NoError(t, err)
	assert.Nil(t, queued)
	assert.Equal(t, 2, s.Queued())

	// Only the first user entry is visible while its reply is outstanding
	assert.Equal(t, []models.Message{models.UserMessage("one")}, s.Messages())

	req := first
	for req != nil {
		reply, err := s.Execute(context.Background(), req)
		req = s.Settle(req, reply, err)
	}

	assert.Equal(t, []models.Message{
		models.UserMessage("one"), models.ModelMessage("re: one"),
		models.UserMessage("two"), models.ModelMessage("re: two"),
		models.UserMessage("three"), models.ModelMessage("re: three"),
	}, s.Messages())
	assert.False(t, s.Pending())
	assert.Zero(t, s.Queued())

	// Each queued request saw everything before it
	calls := gw.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[1].History, 2)
	assert.Len(t, calls[2].History, 4)
}

func TestSendMessage_ConcurrentCallersKeepPairsOrdered(t *testing.T) {
	gw := &api.MockGateway{ReplyFunc: func(prompt string, _ []models.Message, _ config.AppSettings) (string, error) {
		time.Sleep(time.Millisecond)
		return "re: " + prompt, nil
	}}
	s, _ := newTestStore(gw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SendMessage(context.Background(), fmt.Sprintf("p%d", i))
		}(i)
	}
	wg.Wait()

	assert.False(t, s.Pending())
	assert.Zero(t, s.Queued())
	msgs := s.Messages()
	require.Len(t, msgs, 16)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, models.RoleUser, msgs[i].Role)
		assert.Equal(t, models.RoleModel, msgs[i+1].Role)
		assert.Equal(t, "re: "+msgs[i].Text, msgs[i+1].Text)
	}
}

// queueBehind starts a blocking send of text once first is in flight and
// returns the channel its result arrives on
func queueBehind(t *testing.T, s *Store, ctx context.Context, text string) <-chan error {
	t.Helper()
	queued := s.Queued()
	done := make(chan error, 1)
	go func() {
		done <- s.SendMessage(ctx, text)
	}()
	require.Eventually(t, func() bool { return s.Queued() == queued+1 }, time.Second, time.Millisecond)
	return done
}

func TestSendMessage_QueuedCallerWaitsForItsReply(t *testing.T) {
	gw := &api.MockGateway{ReplyFunc: func(prompt string, _ []models.Message, _ config.AppSettings) (string, error) {
		return "re: " + prompt, nil
	}}
	s, _ := newTestStore(gw)

	first, err := s.Begin("first")
	require.NoError(t, err)
	done := queueBehind(t, s, context.Background(), "second")

	select {
	case err := <-done:
		require.Failf(t, "queued send returned before its turn", "err: %v", err)
	default:
	}

	reply, err := s.Execute(context.Background(), first)
	assert.Nil(t, s.Settle(first, reply, err), "a blocking sender runs its own request")

	require.NoError(t, <-done)
	assert.Len(t, s.Messages(), 4)
	last, ok := s.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "re: second", last)
	assert.False(t, s.Pending())
}

func TestSendMessage_QueuedCallerUsesItsOwnContext(t *testing.T) {
	block := make(chan struct{})
	gw := &api.MockGateway{Reply: "ok", Block: block}
	s, _ := newTestStore(gw)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.SendMessage(firstCtx, "first")
	}()
	require.Eventually(t, func() bool { return gw.CallCount() == 1 }, time.Second, time.Millisecond)

	secondDone := queueBehind(t, s, context.Background(), "second")

	cancelFirst()
	require.NoError(t, <-firstDone)
	require.Eventually(t, func() bool { return gw.CallCount() == 2 }, time.Second, time.Millisecond)

	close(block)
	require.NoError(t, <-secondDone)

	assert.Equal(t, []models.Message{
		models.UserMessage("first"), models.ModelMessage(FallbackReply),
		models.UserMessage("second"), models.ModelMessage("ok"),
	}, s.Messages())
	assert.NoError(t, s.LastError())
}

func TestSendMessage_QueuedCallerCancelled(t *testing.T) {
	s, _ := newTestStore(&api.MockGateway{Reply: "r"})

	_, err := s.Begin("first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := queueBehind(t, s, ctx, "second")
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, s.Queued())
	assert.Equal(t, []models.Message{models.UserMessage("first")}, s.Messages())
}

func TestSendMessage_QueuedCallerReleasedByReset(t *testing.T) {
	s, _ := newTestStore(&api.MockGateway{Reply: "r"})

	_, err := s.Begin("first")
	require.NoError(t, err)
	done := queueBehind(t, s, context.Background(), "second")

	s.ResetSession()

	assert.ErrorIs(t, <-done, ErrSessionReset)
	assert.Empty(t, s.Messages())
}

func TestResetSession(t *testing.T) {
	gw := &api.MockGateway{Reply: "r"}
	s, nav := newTestStore(gw)
	seed(t, s, 4)
	_, err := s.Begin("in flight")
	require.NoError(t, err)
	require.Len(t, s.Messages(), 5)
	nav.Navigate(views.Safety)

	before := s.SessionID()
	s.ResetSession()

	assert.Empty(t, s.Messages())
	assert.NotNil(t, s.Messages(), "an empty session is an empty slice")
	assert.False(t, s.Pending())
	assert.Zero(t, s.Queued())
	assert.Equal(t, views.Conversation, nav.Active())
	assert.NotEqual(t, before, s.SessionID())
}

func TestResetSession_FromAnyState(t *testing.T) {
	s, nav := newTestStore(&api.MockGateway{Reply: "r"})
	s.ResetSession()
	assert.Empty(t, s.Messages())
	assert.Equal(t, views.Conversation, nav.Active())
}

func TestSettle_StaleReplyDiscarded(t *testing.T) {
	gw := &api.MockGateway{Reply: "late"}
	s, _ := newTestStore(gw)

	old, err := s.Begin("before reset")
	require.NoError(t, err)
	_, err = s.Begin("queued before reset")
	require.NoError(t, err)

	s.ResetSession()

	fresh, err := s.Begin("after reset")
	require.NoError(t, err)
	require.NotNil(t, fresh)

	// The reply to the old request arrives while the new one is pending
	assert.Nil(t, s.Settle(old, "late", nil))
	assert.Equal(t, []models.Message{models.UserMessage("after reset")}, s.Messages())
	assert.True(t, s.Pending(), "a stale reply must not clear the new request's pending flag")
	assert.Zero(t, s.Queued(), "reset drops queued sends")

	assert.Nil(t, s.Settle(fresh, "current", nil))
	assert.Equal(t, []models.Message{models.UserMessage("after reset"), models.ModelMessage("current")}, s.Messages())
	assert.False(t, s.Pending())
}

func TestSettle_Nil(t *testing.T) {
	s, _ := newTestStore(&api.MockGateway{})
	assert.Nil(t, s.Settle(nil, "x", nil))
	assert.Zero(t, s.Len())
}

func TestLastReply(t *testing.T) {
	gw := &api.MockGateway{Reply: "answer"}
	s, _ := newTestStore(gw)

	_, ok := s.LastReply()
	assert.False(t, ok)

	require.NoError(t, s.SendMessage(context.Background(), "q"))
	got, ok := s.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "answer", got)

	_, err := s.Begin("pending")
	require.NoError(t, err)
	_, ok = s.LastReply()
	assert.False(t, ok, "last entry is the user's while pending")
}

func TestMessages_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(&api.MockGateway{Reply: "r"})
	require.NoError(t, s.SendMessage(context.Background(), "q"))

	msgs := s.Messages()
	msgs[0].Text = "tampered"
	assert.Equal(t, "q", s.Messages()[0].Text)
}
