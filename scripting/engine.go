// Package scripting runs Lua seed layout scripts against a field.
package scripting

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

// Target is the part of a field a script may touch.
type Target interface {
	AddStaticParticle(pos components.Vector) bool
	AddParticle()
	HalfExtents() components.Vector
	NumStatic() int
}

// Engine wraps a single gopher-lua VM bound to one target.
// Single-goroutine access only.
type Engine struct {
	vm     *lua.LState
	target Target
	rng    systems.RandomSource

	placed   int
	rejected int
}

// NewEngine creates a VM exposing the seeding API:
//
//	HALF_WIDTH, HALF_HEIGHT    field half extents
//	add_static(x, y) -> bool   place a static particle
//	add_particle()             spawn a moving particle
//	static_count() -> int      live static particles
//	random() -> float          uniform sample in [0, 1) from the simulation rng
func NewEngine(target Target, rng systems.RandomSource) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	e := &Engine{vm: vm, target: target, rng: rng}

	half := target.HalfExtents()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("HALF_WIDTH", lua.LNumber(half.X))
	vm.SetGlobal("HALF_HEIGHT", lua.LNumber(half.Y))
	vm.SetGlobal("add_static", vm.NewFunction(e.addStatic))
	vm.SetGlobal("add_particle", vm.NewFunction(e.addParticle))
	vm.SetGlobal("static_count", vm.NewFunction(e.staticCount))
	vm.SetGlobal("random", vm.NewFunction(e.random))

	return e
}

func (e *Engine) addStatic(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	ok := e.target.AddStaticParticle(components.Vec(x, y))
	if ok {
		e.placed++
	} else {
		e.rejected++
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (e *Engine) addParticle(L *lua.LState) int {
	e.target.AddParticle()
	return 0
}

func (e *Engine) staticCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.target.NumStatic()))
	return 1
}

func (e *Engine) random(L *lua.LState) int {
	L.Push(lua.LNumber(e.rng.Float64()))
	return 1
}

// RunFile executes a script file.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	slog.Debug("seed script done", "file", path, "placed", e.placed, "rejected", e.rejected)
	return nil
}

// RunString executes inline Lua source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run seed script: %w", err)
	}
	slog.Debug("seed script done", "placed", e.placed, "rejected", e.rejected)
	return nil
}

// Placed returns how many add_static calls succeeded and how many were refused.
func (e *Engine) Placed() (placed, rejected int) {
	return e.placed, e.rejected
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
