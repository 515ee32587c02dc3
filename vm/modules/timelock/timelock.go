// Package timelock delays privileged calls behind a minimum wait and an
// optional predecessor operation. Admins schedule and cancel; only the owner
// executes.
package timelock

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

func init() {
	vm.Register(core.TxTimelockSchedule, handleSchedule, vm.Privileged())
	vm.Register(core.TxTimelockExecute, handleExecute, vm.Payable())
	vm.Register(core.TxTimelockCancel, handleCancel, vm.Privileged())
}

// OperationID hashes the identity of a call.
func OperationID(c core.TimelockCall) string {
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], c.Value)
	return crypto.Keccak256Hex([]byte(c.Target), value[:], c.Payload, []byte(c.Predecessor), []byte(c.Salt))
}

// State derives the observable state of operation id at now. A pending
// operation is ready once its delay has passed and its predecessor, if any,
// has executed.
func State(st core.State, id string, now int64) (core.OperationState, error) {
	op, err := st.GetTimelockOp(id)
	if errors.Is(err, core.ErrNotFound) {
		return core.OpUnset, nil
	}
	if err != nil {
		return "", err
	}
	if op.Status != core.OpPending {
		return op.Status, nil
	}
	if now < op.ReadyAt {
		return core.OpPending, nil
	}
	if op.Predecessor != "" {
		pred, err := st.GetTimelockOp(op.Predecessor)
		if errors.Is(err, core.ErrNotFound) {
			return core.OpPending, nil
		}
		if err != nil {
			return "", err
		}
		if pred.Status != core.OpExecuted {
			return core.OpPending, nil
		}
	}
	return core.OpReady, nil
}

func handleSchedule(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TimelockSchedulePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	params, err := vm.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	if p.Delay < params.TimelockMinDelay || p.Delay > params.TimelockMaxDelay {
		return fmt.Errorf("%w: delay %d outside [%d, %d]",
			core.ErrValidation, p.Delay, params.TimelockMinDelay, params.TimelockMaxDelay)
	}
	call := vm.PrivilegedCall{Target: p.Target, Payload: p.Payload, Value: p.Value}
	if err := vm.ValidateCall(call); err != nil {
		return err
	}
	id := OperationID(p.TimelockCall)
	if _, err := ctx.State.GetTimelockOp(id); err == nil {
		return fmt.Errorf("%w: operation %s already scheduled", core.ErrStateConflict, id)
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	if p.Predecessor != "" {
		if _, err := ctx.State.GetTimelockOp(p.Predecessor); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("%w: unknown predecessor %s", core.ErrValidation, p.Predecessor)
			}
			return err
		}
	}
	op := &core.TimelockOperation{
		ID:          id,
		Target:      p.Target,
		Value:       p.Value,
		Payload:     p.Payload,
		Predecessor: p.Predecessor,
		Salt:        p.Salt,
		ReadyAt:     ctx.Now() + p.Delay,
		Status:      core.OpPending,
	}
	if err := ctx.State.SetTimelockOp(op); err != nil {
		return err
	}
	ctx.Emit(events.EventCallScheduled, map[string]any{
		"id": id, "target": string(op.Target), "ready_at": op.ReadyAt, "predecessor": op.Predecessor,
	})
	return nil
}

// handleExecute runs a ready operation as the timelock address. A failing
// call reverts the whole transaction, leaving the operation ready.
func handleExecute(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TimelockOpPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if ctx.Caller != params.Owner {
		return fmt.Errorf("%w: only the owner executes timelock operations", core.ErrUnauthorized)
	}
	op, err := ctx.State.GetTimelockOp(p.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: operation %s", core.ErrNotFound, p.ID)
		}
		return err
	}
	state, err := State(ctx.State, op.ID, ctx.Now())
	if err != nil {
		return err
	}
	if state != core.OpReady {
		return fmt.Errorf("%w: operation %s is %s", core.ErrTiming, op.ID, state)
	}
	if ctx.Value != op.Value {
		return fmt.Errorf("%w: operation %s needs value %d, got %d", core.ErrValidation, op.ID, op.Value, ctx.Value)
	}
	op.Status = core.OpExecuted
	if err := ctx.State.SetTimelockOp(op); err != nil {
		return err
	}
	if err := vm.Dispatch(ctx, core.TimelockAddress, vm.PrivilegedCall{
		Target: op.Target, Payload: op.Payload, Value: op.Value,
	}); err != nil {
		return err
	}
	ctx.Emit(events.EventCallExecuted, map[string]any{"id": op.ID, "target": string(op.Target)})
	return nil
}

func handleCancel(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TimelockOpPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if _, err := vm.RequireAdmin(ctx); err != nil {
		return err
	}
	state, err := State(ctx.State, p.ID, ctx.Now())
	if err != nil {
		return err
	}
	if state != core.OpPending && state != core.OpReady {
		return fmt.Errorf("%w: operation %s is %s", core.ErrStateConflict, p.ID, state)
	}
	op, err := ctx.State.GetTimelockOp(p.ID)
	if err != nil {
		return err
	}
	op.Status = core.OpCancelled
	if err := ctx.State.SetTimelockOp(op); err != nil {
		return err
	}
	ctx.Emit(events.EventCallCancelled, map[string]any{"id": op.ID})
	return nil
}
