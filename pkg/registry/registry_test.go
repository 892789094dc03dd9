package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(prefix string) registry.ToolFunction {
	return func(ctx context.Context, args map[string]any) (string, error) {
		return fmt.Sprintf("%s:%v", prefix, args["q"]), nil
	}
}

func TestRegistry_Execute(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(domain.Tool{Name: "search_hotels"}, echo("hotels"))
	reg.MustRegister(domain.Tool{Name: "broken"}, func(ctx context.Context, args map[string]any) (string, error) {
		return "", errors.New("database is locked")
	})
	reg.MustRegister(domain.Tool{Name: "explodes"}, func(ctx context.Context, args map[string]any) (string, error) {
		panic("boom")
	})

	tests := []struct {
		name     string
		req      domain.ActionRequest
		isError  bool
		contains string
	}{
		{"success", domain.ActionRequest{ID: "1", Name: "search_hotels", Arguments: map[string]any{"q": "Basel"}}, false, "hotels:Basel"},
		{"unknown tool", domain.ActionRequest{ID: "2", Name: "teleport"}, true, `"teleport" is not available`},
		{"tool error", domain.ActionRequest{ID: "3", Name: "broken"}, true, "database is locked"},
		{"tool panic", domain.ActionRequest{ID: "4", Name: "explodes"}, true, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reg.Execute(context.Background(), tt.req)
			assert.Equal(t, tt.req.ID, res.ActionID)
			assert.Equal(t, tt.req.Name, res.Name)
			assert.Equal(t, tt.isError, res.IsError)
			assert.Contains(t, res.Text, tt.contains)
		})
	}
}

func TestRegistry_ExecuteCancelledContext(t *testing.T) {
	var called atomic.Bool
	reg := registry.New()
	reg.MustRegister(domain.Tool{Name: "search_flights"}, func(ctx context.Context, args map[string]any) (string, error) {
		called.Store(true)
		return "[]", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := reg.Execute(ctx, domain.ActionRequest{ID: "1", Name: "search_flights"})
	assert.True(t, res.IsError)
	assert.False(t, called.Load())
}

func TestRegistry_Register(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(domain.Tool{Name: "a"}, echo("a")))

	err := reg.Register(domain.Tool{Name: "a"}, echo("a"))
	assert.ErrorIs(t, err, domain.ErrDuplicateTool)

	assert.Error(t, reg.Register(domain.Tool{Name: ""}, echo("x")))
	assert.Error(t, reg.Register(domain.Tool{Name: domain.EscalationTool}, echo("x")))
	assert.Error(t, reg.Register(domain.Tool{Name: "nil"}, nil))

	assert.True(t, reg.Has("a"))
	assert.False(t, reg.Has("b"))
	assert.Equal(t, []string{"a"}, reg.Names())
}

func TestRegistry_Specs(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(domain.Tool{Name: "b", Description: "second"}, echo("b"))
	reg.MustRegister(domain.Tool{Name: "a", Description: "first"}, echo("a"))

	specs := reg.Specs("a", "missing", "b")
	require.Len(t, specs, 2)
	assert.Equal(t, "first", specs[0].Description)
	assert.Equal(t, "second", specs[1].Description)
}

func TestRegistry_ExecuteBatchKeepsAttribution(t *testing.T) {
	reg := registry.New(registry.WithConcurrency(4))
	var inFlight, peak atomic.Int32
	reg.MustRegister(domain.Tool{Name: "slow"}, func(ctx context.Context, args map[string]any) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inFlight.Add(-1)
		d, _ := args["delay"].(int)
		time.Sleep(time.Duration(d) * time.Millisecond)
		return fmt.Sprintf("done-%v", args["q"]), nil
	})

	reqs := []domain.ActionRequest{
		{ID: "call_a", Name: "slow", Arguments: map[string]any{"q": "a", "delay": 40}},
		{ID: "call_b", Name: "slow", Arguments: map[string]any{"q": "b", "delay": 5}},
		{ID: "call_c", Name: "missing"},
		{ID: "call_d", Name: "slow", Arguments: map[string]any{"q": "d", "delay": 20}},
	}

	results := reg.ExecuteBatch(context.Background(), reqs)
	require.Len(t, results, len(reqs))
	for i, req := range reqs {
		assert.Equal(t, req.ID, results[i].ActionID)
	}
	assert.Equal(t, "done-a", results[0].Text)
	assert.Equal(t, "done-b", results[1].Text)
	assert.True(t, results[2].IsError)
	assert.Equal(t, "done-d", results[3].Text)
	assert.Greater(t, peak.Load(), int32(1), "batch should run concurrently")
}

func TestRegistry_ExecuteBatchSequential(t *testing.T) {
	reg := registry.New(registry.WithConcurrency(0))
	var order []string
	reg.MustRegister(domain.Tool{Name: "record"}, func(ctx context.Context, args map[string]any) (string, error) {
		order = append(order, args["q"].(string))
		return "ok", nil
	})

	reg.ExecuteBatch(context.Background(), []domain.ActionRequest{
		{ID: "1", Name: "record", Arguments: map[string]any{"q": "first"}},
		{ID: "2", Name: "record", Arguments: map[string]any{"q": "second"}},
	})
	assert.Equal(t, []string{"first", "second"}, order)
}

type bookArgs struct {
	HotelID  int    `json:"hotel_id"`
	Checkin  string `json:"checkin_date"`
	Optional string `json:"optional,omitempty"`
}

func TestTyped_DecodesLooseArguments(t *testing.T) {
	var got bookArgs
	fn := registry.Typed(func(ctx context.Context, args bookArgs) (string, error) {
		got = args
		return "ok", nil
	})

	_, err := fn(context.Background(), map[string]any{"hotel_id": float64(42), "checkin_date": "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, 42, got.HotelID)
	assert.Equal(t, "2024-05-01", got.Checkin)

	_, err = fn(context.Background(), map[string]any{"hotel_id": "17"})
	require.NoError(t, err)
	assert.Equal(t, 17, got.HotelID)

	_, err = fn(context.Background(), map[string]any{"hotel_id": "not-a-number"})
	assert.Error(t, err)
}
