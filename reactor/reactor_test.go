// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/steamsim"
	"github.com/bvk/sentinel/steamtotp"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/topic"
)

func testCredentials() *Credentials {
	return &Credentials{
		SteamID:      "76561197960287930",
		AccountName:  "sentinel",
		Password:     "password",
		SharedSecret: "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=",
	}
}

type testReactor struct {
	*Reactor

	backend *steamsim.Backend
	session *steamsim.Session
	eventCh <-chan Event
}

func newTestReactor(t *testing.T, simOpts *steamsim.Options, opts *Options) *testReactor {
	events := topic.New[Event]()
	t.Cleanup(func() { events.Close() })

	receiver, err := topic.Subscribe(events, 0, false /* includeRecent */)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { receiver.Close() })

	eventCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		t.Fatal(err)
	}

	backend := steamsim.New(simOpts)
	if opts == nil {
		opts = new(Options)
	}
	opts.Events = events

	r, err := New(testCredentials(), backend, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	return &testReactor{
		Reactor: r,
		backend: backend,
		session: backend.Session(),
		eventCh: eventCh,
	}
}

func (tr *testReactor) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-tr.eventCh:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for an event")
	}
	return nil
}

func (tr *testReactor) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-tr.eventCh:
		t.Fatalf("want no events, got %s", ev.EventName())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New(testCredentials(), nil, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for nil backend, got %v", err)
	}
	if _, err := New(nil, steamsim.New(nil), nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for nil credentials, got %v", err)
	}
	creds := testCredentials()
	creds.Password = ""
	if _, err := New(creds, steamsim.New(nil), nil); err == nil {
		t.Fatalf("want error for missing password")
	}
	creds = testCredentials()
	creds.SharedSecret = "not base64!"
	if _, err := New(creds, steamsim.New(nil), nil); err == nil {
		t.Fatalf("want error for invalid shared secret")
	}
}

func TestLogOnDetails(t *testing.T) {
	start := time.Now()
	tr := newTestReactor(t, nil, nil)

	logOns := tr.session.LogOns()
	if len(logOns) != 1 {
		t.Fatalf("want one login attempt, got %d", len(logOns))
	}
	d := logOns[0]
	if d.AccountName != "sentinel" || d.Password != "password" {
		t.Fatalf("unexpected login details %+v", d)
	}
	if d.LogonID >= 1<<16 {
		t.Fatalf("random logon id %d is out of range", d.LogonID)
	}
	want1, _ := steamtotp.AuthCode(testCredentials().SharedSecret, start)
	want2, _ := steamtotp.AuthCode(testCredentials().SharedSecret, time.Now())
	if d.TwoFactorCode != want1 && d.TwoFactorCode != want2 {
		t.Fatalf("want two-factor code %s or %s, got %s", want1, want2, d.TwoFactorCode)
	}
	if tr.Online() {
		t.Fatalf("reactor must not be online before login")
	}
	tr.none(t)
}

func TestLogOnFixedLogonID(t *testing.T) {
	events := topic.New[Event]()
	defer events.Close()

	creds := testCredentials()
	creds.LogonID = 123456
	backend := steamsim.New(nil)
	r, err := New(creds, backend, &Options{Events: events})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if id := backend.Session().LogOns()[0].LogonID; id != 123456 {
		t.Fatalf("want logon id 123456, got %d", id)
	}
}

func TestLoggedOn(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	tr.session.FireLoggedOn()
	if ev := tr.next(t); ev.EventName() != OnLogin {
		t.Fatalf("want %s, got %s", OnLogin, ev.EventName())
	}
	tr.none(t)

	if !tr.Online() {
		t.Fatalf("reactor must be online after login")
	}
	if p := tr.session.Persona(); p != steam.PersonaOnline {
		t.Fatalf("want persona online, got %d", p)
	}
	if games := tr.session.Games(); len(games) != 1 || games[0] != DefaultPlayingGameName {
		t.Fatalf("want default game name, got %q", games)
	}
	if id := tr.SteamID(); id != "76561197960287930" {
		t.Fatalf("unexpected steamid %q", id)
	}
}

func TestSteamGuardRetrySkippedAfterLogin(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{SteamGuardRetryDelay: 50 * time.Millisecond})

	tr.session.FireSteamGuard("", true /* lastCodeWrong */)
	if tr.Online() {
		t.Fatalf("reactor must be offline after a wrong code")
	}
	tr.session.FireLoggedOn()
	tr.next(t)

	time.Sleep(200 * time.Millisecond)
	if codes := tr.session.SubmittedCodes(); len(codes) != 0 {
		t.Fatalf("want no codes submitted after login, got %q", codes)
	}
}

func TestSteamGuardRetrySubmitsFreshCode(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{SteamGuardRetryDelay: 10 * time.Millisecond})

	tr.session.FireSteamGuard("", true /* lastCodeWrong */)

	deadline := time.Now().Add(5 * time.Second)
	for len(tr.session.SubmittedCodes()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for code submission")
		}
		time.Sleep(10 * time.Millisecond)
	}
	codes := tr.session.SubmittedCodes()
	if len(codes) != 1 || len(codes[0]) != 5 {
		t.Fatalf("want one five character code, got %q", codes)
	}
}

func TestSteamGuardFirstChallengeMarksOnline(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{SteamGuardRetryDelay: 10 * time.Millisecond})

	// A challenge without a previous wrong code marks the session online, so
	// the retry doesn't submit anything.
	tr.session.FireSteamGuard("", false /* lastCodeWrong */)
	if !tr.Online() {
		t.Fatalf("reactor must be online when last code was not wrong")
	}
	time.Sleep(100 * time.Millisecond)
	if codes := tr.session.SubmittedCodes(); len(codes) != 0 {
		t.Fatalf("want no codes submitted, got %q", codes)
	}
}

func TestSteamGuardRetryStoppedOnClose(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{SteamGuardRetryDelay: 50 * time.Millisecond})

	tr.session.FireSteamGuard("", true /* lastCodeWrong */)
	tr.Close()

	time.Sleep(200 * time.Millisecond)
	if codes := tr.session.SubmittedCodes(); len(codes) != 0 {
		t.Fatalf("want no codes submitted after close, got %q", codes)
	}
}

func TestWebSessionSetsCookies(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	cookies := []string{"sessionid=abc", "steamLoginSecure=xyz"}
	tr.session.FireWebSession("abc", cookies)

	ev, ok := tr.next(t).(*WebSessionJoinEvent)
	if !ok {
		t.Fatalf("want web session join event")
	}
	if ev.SessionID != "abc" || len(ev.Cookies) != 2 {
		t.Fatalf("unexpected web session event %+v", ev)
	}

	m := tr.session.TradeManager()
	if got := m.Cookies(); len(got) != 2 || got[0] != cookies[0] {
		t.Fatalf("cookies are not set on the trade manager: %q", got)
	}
	if !m.HasHandler() {
		t.Fatalf("trade handler must be attached after cookies are set")
	}

	// Repeated web sessions do not duplicate trade events.
	tr.session.FireWebSession("def", cookies)
	tr.next(t)

	m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931"})
	if ev := tr.next(t); ev.EventName() != OnNewTrade {
		t.Fatalf("want %s, got %s", OnNewTrade, ev.EventName())
	}
	tr.none(t)
}

func TestWebSessionCookieFailure(t *testing.T) {
	cookieErr := errors.New("cookie failure")
	tr := newTestReactor(t, &steamsim.Options{SetCookiesError: cookieErr}, nil)

	tr.session.FireWebSession("abc", []string{"sessionid=abc"})
	if ev := tr.next(t); ev.EventName() != OnWebSessionJoin {
		t.Fatalf("want %s, got %s", OnWebSessionJoin, ev.EventName())
	}
	ev, ok := tr.next(t).(*ErrorEvent)
	if !ok {
		t.Fatalf("want an error event")
	}
	if !errors.Is(ev.Err, cookieErr) {
		t.Fatalf("want cookie failure, got %v", ev.Err)
	}
	m := tr.session.TradeManager()
	if m.HasHandler() {
		t.Fatalf("trade handler must not be attached when cookies fail")
	}

	m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931"})
	tr.none(t)
}

func TestWebSessionTestMode(t *testing.T) {
	tr := newTestReactor(t, &steamsim.Options{SetCookiesError: errors.New("unused")}, &Options{TestMode: true})

	tr.session.FireWebSession("abc", []string{"sessionid=abc"})
	if ev := tr.next(t); ev.EventName() != OnWebSessionJoin {
		t.Fatalf("want %s, got %s", OnWebSessionJoin, ev.EventName())
	}
	tr.none(t)

	m := tr.session.TradeManager()
	if len(m.Cookies()) != 0 {
		t.Fatalf("cookies must not be set in test mode")
	}
	if !m.HasHandler() {
		t.Fatalf("trade handler must be attached in test mode")
	}
}

func TestDisconnected(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	tr.session.FireDisconnected(steam.ResultLoggedInElsewhere, "logged in elsewhere")
	ev, ok := tr.next(t).(*LogoutEvent)
	if !ok {
		t.Fatalf("want a logout event")
	}
	if ev.EResult != 6 || ev.Message != "logged in elsewhere" {
		t.Fatalf("unexpected logout event %+v", ev)
	}
	if n := len(tr.session.LogOns()); n != 1 {
		t.Fatalf("want no reconnect attempts, got %d logins", n)
	}
}

func TestSessionError(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	sessionErr := errors.New("connection reset")
	tr.session.FireError(sessionErr)
	ev, ok := tr.next(t).(*ErrorEvent)
	if !ok || !errors.Is(ev.Err, sessionErr) {
		t.Fatalf("want error event with the session error")
	}
}

func TestChatMessage(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	tr.session.FireFriendMessage(76561197960287931, "hello")
	ev, ok := tr.next(t).(*ChatMessageEvent)
	if !ok {
		t.Fatalf("want a chat message event")
	}
	if ev.SteamID != "76561197960287931" || ev.Message != "hello" {
		t.Fatalf("unexpected chat message event %+v", ev)
	}
}

func TestFriendRelationship(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	tr.session.FireFriendRelationship(76561197960287931, steam.RelationshipFriend)
	tr.session.FireFriendRelationship(76561197960287931, steam.RelationshipBlocked)
	tr.none(t)

	tr.session.FireFriendRelationship(76561197960287932, steam.RelationshipRequestRecipient)
	ev, ok := tr.next(t).(*FriendRequestEvent)
	if !ok {
		t.Fatalf("want a friend request event")
	}
	if ev.SteamID != "76561197960287932" {
		t.Fatalf("unexpected friend request event %+v", ev)
	}
}

func TestTradeRequestDeclined(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accept, err := tr.session.FireTradeRequest(ctx, 76561197960287931)
	if err != nil {
		t.Fatal(err)
	}
	if accept {
		t.Fatalf("live trade requests must be declined")
	}
	tr.none(t)
}

func TestOfferEvents(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{TestMode: true})
	tr.session.FireWebSession("abc", nil)
	tr.next(t)

	m := tr.session.TradeManager()

	received := m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931"})
	if ev := tr.next(t); ev.EventName() != OnNewTrade {
		t.Fatalf("want %s, got %s", OnNewTrade, ev.EventName())
	}
	if err := m.SetOfferState(received.ID, tradeoffer.Accepted); err != nil {
		t.Fatal(err)
	}
	ev := tr.next(t)
	if ev.EventName() != OnIncomingTradeCompleted {
		t.Fatalf("want %s, got %s", OnIncomingTradeCompleted, ev.EventName())
	}
	if offer, ok := EventOffer(ev); !ok || offer.ID != received.ID {
		t.Fatalf("event must carry the accepted offer")
	}

	sent := m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931", IsOurOffer: true})
	if ev := tr.next(t); ev.EventName() != OnTradeSent {
		t.Fatalf("want %s, got %s", OnTradeSent, ev.EventName())
	}
	if err := m.SetOfferState(sent.ID, tradeoffer.Canceled); err != nil {
		t.Fatal(err)
	}
	tr.none(t)
	if err := m.SetOfferState(sent.ID, tradeoffer.CanceledBySecondFactor); err != nil {
		t.Fatal(err)
	}
	if ev := tr.next(t); ev.EventName() != OnTradeFailed {
		t.Fatalf("want %s, got %s", OnTradeFailed, ev.EventName())
	}
}

func TestExchangeDetails(t *testing.T) {
	tr := newTestReactor(t, nil, &Options{TestMode: true})
	tr.session.FireWebSession("abc", nil)
	tr.next(t)

	m := tr.session.TradeManager()
	offer := m.CreateOffer(&tradeoffer.Offer{
		Partner:        "76561197960287931",
		ItemsToReceive: []*tradeoffer.Item{{AppID: 730, ContextID: "2", AssetID: "100"}},
	})
	tr.next(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted, err := tr.ExchangeDetails(ctx, offer)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != tradeoffer.ExchangeComplete {
		t.Fatalf("want complete exchange, got %s", accepted.Status)
	}
	if item := accepted.ItemsToReceive[0]; item.AssetID != "100" || len(item.NewAssetID) == 0 {
		t.Fatalf("want augmented item, got %+v", item)
	}
}

func TestCloseStopsEvents(t *testing.T) {
	tr := newTestReactor(t, nil, nil)

	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	tr.session.FireLoggedOn()
	tr.none(t)
}

func TestOwnTopic(t *testing.T) {
	backend := steamsim.New(nil)
	r, err := New(testCredentials(), backend, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	receiver, err := r.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	backend.Session().FireFriendMessage(76561197960287931, "ping")
	ev, err := receiver.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if ev.EventName() != OnChatMessage {
		t.Fatalf("want %s, got %s", OnChatMessage, ev.EventName())
	}
}
