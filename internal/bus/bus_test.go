package bus

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestPublish_RegistrationOrder(t *testing.T) {
	b := New()
	var got []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		b.Subscribe("evt", func(args ...any) error {
			got = append(got, name)
			return nil
		})
	}

	if err := b.Publish("evt"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPublish_UnknownEventIsNoop(t *testing.T) {
	b := New()
	if err := b.Publish("nobody-listens", 1, 2, 3); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestPublish_PassesArguments(t *testing.T) {
	b := New()
	var gotA, gotB any
	b.Subscribe("evt", func(args ...any) error {
		if len(args) != 2 {
			t.Fatalf("expected 2 args, got %d", len(args))
		}
		gotA, gotB = args[0], args[1]
		return nil
	})

	b.Publish("evt", "x", 42)

	if gotA != "x" || gotB != 42 {
		t.Errorf("expected (x, 42), got (%v, %v)", gotA, gotB)
	}
}

func TestUnsubscribe_RemovesHandler(t *testing.T) {
	b := New()
	calls := 0
	sub := b.Subscribe("evt", func(args ...any) error {
		calls++
		return nil
	})

	b.Publish("evt")
	b.Unsubscribe(sub)
	b.Publish("evt")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestUnsubscribe_AbsentIsNoop(t *testing.T) {
	b := New()
	sub := b.Subscribe("evt", func(args ...any) error { return nil })
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(Subscription{event: "other", id: "missing"})
}

func TestPublish_MidDispatchChangesDeferred(t *testing.T) {
	b := New()
	var got []string
	var subSecond Subscription

	b.Subscribe("evt", func(args ...any) error {
		got = append(got, "first")
		// Removing a later handler mid-dispatch must not affect the
		// snapshot taken at the start of this Publish call.
		b.Unsubscribe(subSecond)
		b.Subscribe("evt", func(args ...any) error {
			got = append(got, "added")
			return nil
		})
		return nil
	})
	subSecond = b.Subscribe("evt", func(args ...any) error {
		got = append(got, "second")
		return nil
	})

	b.Publish("evt")
	if fmt.Sprint(got) != "[first second]" {
		t.Fatalf("first dispatch: got %v", got)
	}

	got = nil
	b.Publish("evt")
	if fmt.Sprint(got) != "[first added]" {
		t.Fatalf("second dispatch: got %v", got)
	}
}

func TestPublish_HandlerErrorDoesNotStopDispatch(t *testing.T) {
	b := New()
	errBoom := errors.New("boom")
	var got []string

	b.Subscribe("evt", func(args ...any) error {
		got = append(got, "failing")
		return errBoom
	})
	b.Subscribe("evt", func(args ...any) error {
		got = append(got, "panicking")
		panic("handler exploded")
	})
	b.Subscribe("evt", func(args ...any) error {
		got = append(got, "ok")
		return nil
	})

	err := b.Publish("evt")

	if len(got) != 3 {
		t.Fatalf("expected 3 handlers to run, got %v", got)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("expected aggregated error to contain errBoom, got %v", err)
	}
}

// TestBus_OrderProperty drives random subscribe/unsubscribe/publish sequences
// against a model of the expected handler list and checks that every dispatch
// fires exactly the registered handlers, in registration order.
func TestBus_OrderProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := New()
		type reg struct {
			label string
			sub   Subscription
		}
		var model []reg
		var fired []string
		next := 0

		ops := rapid.IntRange(1, 40).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0: // subscribe
				label := fmt.Sprintf("h%d", next)
				next++
				sub := b.Subscribe("evt", func(args ...any) error {
					fired = append(fired, label)
					return nil
				})
				model = append(model, reg{label: label, sub: sub})
			case 1: // unsubscribe a random registration
				if len(model) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(model)-1).Draw(rt, "idx")
				b.Unsubscribe(model[idx].sub)
				model = append(model[:idx], model[idx+1:]...)
			case 2: // publish and compare against the model
				fired = nil
				if err := b.Publish("evt"); err != nil {
					rt.Fatalf("publish: %v", err)
				}
				if len(fired) != len(model) {
					rt.Fatalf("fired %d handlers, model has %d", len(fired), len(model))
				}
				for j, r := range model {
					if fired[j] != r.label {
						rt.Fatalf("position %d: fired %s, model %s", j, fired[j], r.label)
					}
				}
			}
		}
	})
}
