package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"agenda-whatsapp/internal/dateparse"
	"agenda-whatsapp/internal/flow"
	"agenda-whatsapp/internal/models"
	"agenda-whatsapp/internal/store"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, to types.JID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeSink struct {
	rows []models.Appointment
	err  error
}

func (f *fakeSink) Append(ctx context.Context, appt models.Appointment) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, appt)
	return nil
}

type fakeRoster map[string]models.Customer

func (f fakeRoster) FindByPhone(phone string) (*models.Customer, bool) {
	c, ok := f[phone]
	if !ok {
		return nil, false
	}
	return &c, true
}

const (
	knownPhone = "5213312345678"
	knownUser  = knownPhone + "@s.whatsapp.net"
)

// 10:00 local on Wednesday, November 12 2025, well before the cutoff.
var turnTime = time.Date(2025, time.November, 12, 10, 0, 0, 0, time.UTC)

type fixture struct {
	handler *SchedulingHandler
	sender  *fakeSender
	sink    *fakeSink
	store   store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sender := &fakeSender{}
	sink := &fakeSink{}
	st := store.NewInMemoryStore()
	machine := &flow.Machine{Parse: dateparse.Parse, Loc: time.UTC, CutoffHour: 17}
	r := fakeRoster{knownPhone: {Phone: knownPhone, Name: "María López", AccountID: "ACC-001"}}

	h := NewSchedulingHandler(sender, st, r, machine, sink, zerolog.Nop())
	h.now = func() time.Time { return turnTime }
	return &fixture{handler: h, sender: sender, sink: sink, store: st}
}

func inbound(phone, text string) *events.Message {
	jid := types.NewJID(phone, types.DefaultUserServer)
	return &events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Chat: jid, Sender: jid}},
		Message: &waE2E.Message{Conversation: &text},
	}
}

func (f *fixture) send(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.handler.HandleMessage(inbound(knownPhone, text)))
}

func (f *fixture) state(t *testing.T) *models.ConversationState {
	t.Helper()
	st, err := f.store.Get(knownUser)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st
}

func TestUnknownNumberIgnoredSilently(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.handler.HandleMessage(inbound("5210000000000", "hola")))

	assert.Empty(t, f.sender.sent)
	st, err := f.store.Get("5210000000000@s.whatsapp.net")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestFirstContactCreatesRowAndWelcomes(t *testing.T) {
	f := newFixture(t)

	f.send(t, "hola")

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "María López")
	assert.Contains(t, f.sender.sent[0], "*Agendar*")

	st := f.state(t)
	assert.Equal(t, "ACC-001", st.AccountID)
	assert.Equal(t, models.StepIdle, st.Step)

	// The welcome turn consumes the message; no scheduling dispatch happens.
	assert.Empty(t, f.sink.rows)
}

func TestFullSchedulingFlow(t *testing.T) {
	f := newFixture(t)

	f.send(t, "hola")
	f.send(t, "Agendar")
	assert.Equal(t, models.StepAwaitingDateChoice, f.state(t).Step)

	f.send(t, "2")
	assert.Equal(t, models.StepAwaitingOtherDateInput, f.state(t).Step)

	f.send(t, "mañana")
	st := f.state(t)
	assert.Equal(t, models.StepAwaitingTimeSlotChoice, st.Step)
	assert.Equal(t, "jueves, 13 de noviembre de 2025", st.ScheduledDate)

	f.send(t, "1")
	st = f.state(t)
	assert.Equal(t, models.StepIdle, st.Step)
	assert.Empty(t, st.ScheduledDate)

	require.Len(t, f.sink.rows, 1)
	row := f.sink.rows[0]
	assert.Equal(t, knownUser, row.UserID)
	assert.Equal(t, "ACC-001", row.AccountID)
	assert.Equal(t, "jueves, 13 de noviembre de 2025", row.DateLabel)
	assert.Equal(t, flow.SlotMorning, row.SlotLabel)
	assert.Equal(t, turnTime, row.CreatedAt)

	// welcome, date menu, ask date, slot menu, confirmation
	require.Len(t, f.sender.sent, 5)
	assert.Contains(t, f.sender.sent[4], "✅ Visita agendada")
	assert.Contains(t, f.sender.sent[4], flow.SlotMorning)
}

func TestInvalidChoiceLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)

	f.send(t, "hola")
	f.send(t, "agendar")
	f.send(t, "banana")
	f.send(t, "banana")

	st := f.state(t)
	assert.Equal(t, models.StepAwaitingDateChoice, st.Step)
	assert.Empty(t, st.ScheduledDate)
	assert.Empty(t, f.sink.rows)
}

func TestLedgerFailureDoesNotBlockCompletion(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("sheets unavailable")

	f.send(t, "hola")
	f.send(t, "agendar")
	f.send(t, "2")
	f.send(t, "mañana")
	f.send(t, "2")

	// User still gets the confirmation and the flow still resets.
	last := f.sender.sent[len(f.sender.sent)-1]
	assert.Contains(t, last, flow.SlotAfternoon)

	st := f.state(t)
	assert.Equal(t, models.StepIdle, st.Step)
	assert.Empty(t, st.ScheduledDate)
}

func TestMissingAccountFallsBackToSentinel(t *testing.T) {
	f := newFixture(t)

	// Recognized user whose roster row carried no account id.
	require.NoError(t, f.store.UpsertIdentity(knownUser, ""))
	require.NoError(t, f.store.SetStepAndDate(knownUser, models.StepAwaitingTimeSlotChoice, "hoy"))

	f.send(t, "1")

	require.Len(t, f.sink.rows, 1)
	assert.Equal(t, "CUENTA_NO_ENCONTRADA", f.sink.rows[0].AccountID)
}

func TestTodayConfirmationFlow(t *testing.T) {
	f := newFixture(t)

	f.send(t, "hola")
	f.send(t, "agendar")
	f.send(t, "1")
	assert.Equal(t, models.StepAwaitingTodayConfirm, f.state(t).Step)

	f.send(t, "2")
	assert.Equal(t, models.StepAwaitingLaterTime, f.state(t).Step)

	f.send(t, "4:30 pm")
	st := f.state(t)
	assert.Equal(t, models.StepIdle, st.Step)

	require.Len(t, f.sink.rows, 1)
	assert.Equal(t, "Hoy", f.sink.rows[0].DateLabel)
	assert.Equal(t, "A partir de las 4:30 pm", f.sink.rows[0].SlotLabel)
}

func TestNonTextMessagesIgnored(t *testing.T) {
	f := newFixture(t)

	msg := inbound(knownPhone, "")
	require.NoError(t, f.handler.HandleMessage(msg))
	msg.Message = nil
	require.NoError(t, f.handler.HandleMessage(msg))

	assert.Empty(t, f.sender.sent)
}
