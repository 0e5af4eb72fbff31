// Package flow holds the scheduling dialogue's decision logic. Decide is a
// pure function from (persisted state, inbound text, clock) to replies plus an
// ordered list of effects; it performs no I/O, which is what makes every
// transition unit-testable. Executing the effects is the handler's job.
package flow

import (
	"fmt"
	"strings"
	"time"

	"agenda-whatsapp/internal/dateparse"
	"agenda-whatsapp/internal/models"
)

// Reply texts. The dialogue is Spanish end to end.
const (
	MsgWelcome        = "¡Hola, %s! Gracias por contactarnos. Responde con *Agendar* para iniciar."
	msgTooLateToday   = "Ya no es posible agendar hoy. Indica otra fecha a partir de mañana."
	msgDateMenu       = "*🗓️ Elige opción:*\n1) Hoy\n2) Otra fecha"
	msgTodayMenu      = "Muy bien, agenda para hoy. ¿Ya estás en domicilio?\n1) Sí\n2) Llego más tarde"
	msgAskDate        = "Indica la fecha que prefieres."
	msgAskNewDate     = "Indica la nueva fecha."
	msgInvalidOption  = "Opción no válida (1 o 2)."
	msgInvalidSlot    = "Respuesta no válida. Responde 1, 2 o \"cambiar fecha\"."
	msgDateNotParsed  = "No entendí la fecha. Intenta con \"mañana\" o \"25 de octubre\"."
	msgDatePassed     = "Esa fecha ya pasó. Indica una fecha a partir de hoy."
	msgSlotMenu       = "*⏰ Elige horario*\n1) Matutino\n2) Vespertino\nFecha: %s"
	msgConfirmed      = "✅ Visita agendada para %s en horario %s"
	msgTechDispatch   = "Perfecto, en breve un técnico se dirigirá a tu domicilio."
	msgAskLaterTime   = "Entendido. ¿A partir de qué hora nos puedes recibir hoy?"
	msgConfirmedToday = "✅ Visita agendada para hoy a partir de las %s"
)

// Ledger labels.
const (
	SlotMorning    = "Matutino (9 AM - 2 PM)"
	SlotAfternoon  = "Vespertino (2 PM - 6 PM)"
	TodayConfirmed = "Hoy (confirmado)"
	slotImmediate  = "Inmediato"
)

// ParseFunc matches dateparse.Parse; injected so tests can pin dates.
type ParseFunc func(text string, ref time.Time) (time.Time, bool)

// Machine evaluates transitions against a fixed time zone and cutoff hour.
type Machine struct {
	Parse      ParseFunc
	Loc        *time.Location
	CutoffHour int
}

// Effect is one side effect the handler must execute, in order.
type Effect interface{ effect() }

// SetStep advances the persisted step without touching the stored date.
type SetStep struct {
	Step models.Step
}

// SetStepAndDate advances the step and replaces the stored date label; an
// empty label clears it (the change-date branch).
type SetStepAndDate struct {
	Step      models.Step
	DateLabel string
}

// ClearPending resets the row to idle.
type ClearPending struct{}

// AppendAppointment records a finalized booking in the ledger.
type AppendAppointment struct {
	DateLabel string
	SlotLabel string
}

func (SetStep) effect()           {}
func (SetStepAndDate) effect()    {}
func (ClearPending) effect()      {}
func (AppendAppointment) effect() {}

// Decision is what one inbound message produces: replies for the sender and
// effects for the handler to apply.
type Decision struct {
	Replies []string
	Effects []Effect
}

func reply(texts ...string) Decision {
	return Decision{Replies: texts}
}

// Decide computes the transition for an already-recognized user. Unrecognized
// input in a state that expects a specific choice re-prompts without
// advancing, so a stray message can never derail a half-finished booking.
func (m *Machine) Decide(st models.ConversationState, text string, now time.Time) Decision {
	norm := strings.ToLower(strings.TrimSpace(text))
	local := now.In(m.Loc)

	switch st.Step {
	case models.StepIdle:
		if !strings.Contains(norm, "agendar") {
			return Decision{}
		}
		if local.Hour() >= m.CutoffHour {
			return Decision{
				Replies: []string{msgTooLateToday},
				Effects: []Effect{SetStep{models.StepAwaitingOtherDateInput}},
			}
		}
		return Decision{
			Replies: []string{msgDateMenu},
			Effects: []Effect{SetStep{models.StepAwaitingDateChoice}},
		}

	case models.StepAwaitingDateChoice:
		switch norm {
		case "1":
			return Decision{
				Replies: []string{msgTodayMenu},
				Effects: []Effect{SetStep{models.StepAwaitingTodayConfirm}},
			}
		case "2":
			return Decision{
				Replies: []string{msgAskDate},
				Effects: []Effect{SetStep{models.StepAwaitingOtherDateInput}},
			}
		default:
			return reply(msgInvalidOption)
		}

	case models.StepAwaitingOtherDateInput:
		date, ok := m.Parse(strings.TrimSpace(text), local)
		if !ok {
			return reply(msgDateNotParsed)
		}
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, m.Loc)
		if date.Before(today) {
			return reply(msgDatePassed)
		}
		label := dateparse.FormatLong(date)
		return Decision{
			Replies: []string{fmt.Sprintf(msgSlotMenu, label)},
			Effects: []Effect{SetStepAndDate{models.StepAwaitingTimeSlotChoice, label}},
		}

	case models.StepAwaitingTimeSlotChoice:
		if strings.Contains(norm, "cambiar fecha") {
			return Decision{
				Replies: []string{msgAskNewDate},
				Effects: []Effect{SetStepAndDate{models.StepAwaitingOtherDateInput, ""}},
			}
		}
		var slot string
		switch {
		case norm == "1" || strings.Contains(norm, "matutino"):
			slot = SlotMorning
		case norm == "2" || strings.Contains(norm, "vespertino"):
			slot = SlotAfternoon
		default:
			return reply(msgInvalidSlot)
		}
		return Decision{
			Replies: []string{fmt.Sprintf(msgConfirmed, st.ScheduledDate, slot)},
			Effects: []Effect{
				AppendAppointment{DateLabel: st.ScheduledDate, SlotLabel: slot},
				ClearPending{},
			},
		}

	case models.StepAwaitingTodayConfirm:
		switch norm {
		case "1":
			return Decision{
				Replies: []string{msgTechDispatch},
				Effects: []Effect{
					AppendAppointment{DateLabel: TodayConfirmed, SlotLabel: slotImmediate},
					ClearPending{},
				},
			}
		case "2":
			return Decision{
				Replies: []string{msgAskLaterTime},
				Effects: []Effect{SetStep{models.StepAwaitingLaterTime}},
			}
		default:
			return reply(msgInvalidOption)
		}

	case models.StepAwaitingLaterTime:
		given := strings.TrimSpace(text)
		return Decision{
			Replies: []string{fmt.Sprintf(msgConfirmedToday, given)},
			Effects: []Effect{
				AppendAppointment{DateLabel: "Hoy", SlotLabel: "A partir de las " + given},
				ClearPending{},
			},
		}
	}

	return Decision{}
}
