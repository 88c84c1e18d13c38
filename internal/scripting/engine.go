package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting packet plugins. Plugins call
// on_packet(opcode, fn) at load time; the session consumer then routes each
// decoded packet through DispatchPacket. Single-goroutine access only (the
// dispatch loop) — the VM is not thread safe.
type Engine struct {
	vm        *lua.LState
	log       *zap.Logger
	listeners map[int][]*lua.LFunction
}

// NewEngine creates a Lua engine and loads all plugins from the given
// directory. A missing directory is not an error — the client just runs
// without plugins.
func NewEngine(pluginsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		listeners: make(map[int][]*lua.LFunction),
	}

	vm.SetGlobal("on_packet", vm.NewFunction(e.luaOnPacket))

	if err := e.loadDir(pluginsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load plugins: %w", err)
	}
	return e, nil
}

// luaOnPacket implements on_packet(opcode, fn).
func (e *Engine) luaOnPacket(L *lua.LState) int {
	opcode := L.CheckInt(1)
	fn := L.CheckFunction(2)
	if opcode < 0 || opcode > 255 {
		L.ArgError(1, "opcode must be 0..255")
		return 0
	}
	e.listeners[opcode] = append(e.listeners[opcode], fn)
	return 0
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua plugin", zap.String("file", path))
	}
	return nil
}

// ListenerCount reports how many listeners are registered for an opcode.
func (e *Engine) ListenerCount(opcode byte) int {
	return len(e.listeners[int(opcode)])
}

// DispatchPacket invokes every listener registered for the opcode with
// (opcode, payload). Listener errors are logged, never fatal — a broken
// plugin must not take the session down.
func (e *Engine) DispatchPacket(opcode byte, payload []byte) {
	fns := e.listeners[int(opcode)]
	if len(fns) == 0 {
		return
	}
	for _, fn := range fns {
		err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, lua.LNumber(opcode), lua.LString(payload))
		if err != nil {
			e.log.Error("lua 封包監聽器執行失敗",
				zap.Uint8("opcode", opcode),
				zap.Error(err),
			)
		}
	}
}

// Close shuts the VM down.
func (e *Engine) Close() {
	e.vm.Close()
}
