// Package handler wires the pure dialogue machine to its collaborators: it
// reads state, asks flow.Machine for a decision, executes the returned
// effects against the store and the ledger, and sends the replies.
package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"agenda-whatsapp/internal/flow"
	"agenda-whatsapp/internal/models"
	"agenda-whatsapp/internal/store"
)

// Sentinel written to the ledger when a recognized user somehow has no
// account id on file.
const accountNotFound = "CUENTA_NO_ENCONTRADA"

// Sender delivers outbound replies.
type Sender interface {
	SendText(ctx context.Context, to types.JID, text string) error
}

// Sink records finalized appointments. Failures are logged, never surfaced to
// the user.
type Sink interface {
	Append(ctx context.Context, appt models.Appointment) error
}

// RosterLookup resolves a phone number to a customer record.
type RosterLookup interface {
	FindByPhone(phone string) (*models.Customer, bool)
}

type SchedulingHandler struct {
	sender  Sender
	store   store.Store
	roster  RosterLookup
	machine *flow.Machine
	sink    Sink
	log     zerolog.Logger
	now     func() time.Time

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewSchedulingHandler(sender Sender, st store.Store, r RosterLookup, m *flow.Machine, sink Sink, log zerolog.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		sender:  sender,
		store:   st,
		roster:  r,
		machine: m,
		sink:    sink,
		log:     log,
		now:     time.Now,
		users:   make(map[string]*sync.Mutex),
	}
}

// HandleMessage processes one inbound WhatsApp message. The whole turn runs
// inside a per-user critical section so two messages from the same user can
// never interleave their read-modify-write of the conversation row.
func (h *SchedulingHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}
	text := msg.Message.GetConversation()
	if text == "" {
		return nil
	}

	sender := msg.Info.Sender
	userID := sender.String()

	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx := context.Background()
	st, err := h.store.Get(userID)
	if err != nil {
		return err
	}

	// First contact: match against the roster. Unknown numbers are ignored
	// without a reply so the bot never talks to strangers.
	if st == nil {
		cust, ok := h.roster.FindByPhone(sender.User)
		if !ok {
			h.log.Debug().Str("phone", sender.User).Msg("Ignoring message from number not in roster")
			return nil
		}
		if err := h.store.UpsertIdentity(userID, cust.AccountID); err != nil {
			return err
		}
		h.log.Info().Str("user", userID).Str("account", cust.AccountID).Msg("New conversation created")
		return h.sender.SendText(ctx, sender, fmt.Sprintf(flow.MsgWelcome, cust.Name))
	}

	now := h.now()
	decision := h.machine.Decide(*st, text, now)

	for _, eff := range decision.Effects {
		switch e := eff.(type) {
		case flow.SetStep:
			err = h.store.SetStep(userID, e.Step)
		case flow.SetStepAndDate:
			err = h.store.SetStepAndDate(userID, e.Step, e.DateLabel)
		case flow.ClearPending:
			err = h.store.ClearPending(userID)
		case flow.AppendAppointment:
			h.recordAppointment(ctx, st, e, now)
		}
		if err != nil {
			return err
		}
	}

	for _, r := range decision.Replies {
		if err := h.sender.SendText(ctx, sender, r); err != nil {
			return err
		}
	}
	return nil
}

// recordAppointment appends the row to the ledger. A ledger outage must not
// leave the user stuck mid-flow, so errors are logged and swallowed here.
func (h *SchedulingHandler) recordAppointment(ctx context.Context, st *models.ConversationState, e flow.AppendAppointment, now time.Time) {
	account := st.AccountID
	if account == "" {
		account = accountNotFound
	}
	appt := models.Appointment{
		CreatedAt: now,
		UserID:    st.UserID,
		AccountID: account,
		DateLabel: e.DateLabel,
		SlotLabel: e.SlotLabel,
	}
	if err := h.sink.Append(ctx, appt); err != nil {
		h.log.Error().Err(err).Str("user", st.UserID).Msg("Failed to record appointment in ledger")
		return
	}
	h.log.Info().Str("user", st.UserID).Str("date", e.DateLabel).Str("slot", e.SlotLabel).Msg("Appointment recorded")
}

func (h *SchedulingHandler) userLock(userID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		h.users[userID] = lock
	}
	return lock
}
