package events

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

func TestBusDispatchesByKind(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var filled, placed, all int
	bus.On(KindOrderFilled, func(Event) { filled++ })
	bus.On(KindOrderPlaced, func(Event) { placed++ })
	bus.OnAny(func(Event) { all++ })

	bus.Emit(OrderFilled{Order: models.TradingOrder{ID: "o-1"}})
	bus.Emit(OrderFilled{Order: models.TradingOrder{ID: "o-2"}})
	bus.Emit(Notification{Message: "hi"})

	if filled != 2 || placed != 0 || all != 3 {
		t.Errorf("filled=%d placed=%d all=%d", filled, placed, all)
	}
}

func TestTypedSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got []string
	off := Subscribe(bus, func(e OrderRejected) { got = append(got, e.Reason) })

	bus.Emit(OrderRejected{Reason: "no market data"})
	off()
	bus.Emit(OrderRejected{Reason: "ignored"})

	if len(got) != 1 || got[0] != "no market data" {
		t.Errorf("got = %v", got)
	}
	if bus.HandlerCount(KindOrderRejected) != 0 {
		t.Errorf("handler still registered after off()")
	}
}

func TestHandlerPanicDoesNotStopOthers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	delivered := 0
	bus.On(KindWorkflowExecuted, func(Event) { panic("bad handler") })
	bus.On(KindWorkflowExecuted, func(Event) { delivered++ })

	bus.Emit(WorkflowExecuted{})
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
}
