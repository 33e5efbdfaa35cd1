package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"

	"github.com/Blue-Cardigan/inside-parliament/internal/body"
	"github.com/Blue-Cardigan/inside-parliament/internal/event"
	"github.com/Blue-Cardigan/inside-parliament/internal/interact"
	"github.com/Blue-Cardigan/inside-parliament/internal/minimap"
	"github.com/Blue-Cardigan/inside-parliament/internal/movement"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

const (
	defaultTickInterval = time.Second / 60
	defaultMovePulse    = 180 * time.Millisecond
	yawStep             = 5.0
	pitchStep           = 5.0
	zoomStep            = 1.25
)

type SceneSource interface {
	Ready() bool
	Snapshot() *scene.Snapshot
}

// Console is the terminal host loop. Key handling runs on the reader
// goroutine and only queues work; the tick goroutine owns the controller.
type Console struct {
	controller   *movement.Controller
	scene        SceneSource
	inspector    *interact.Inspector
	minimap      *minimap.Map
	out          io.Writer
	tickInterval time.Duration
	movePulse    time.Duration

	mu            sync.Mutex
	currentInput  body.InputState
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	jumpQueued    bool
	pending       []func()
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
	termWidth     int
}

func NewConsole(controller *movement.Controller, source SceneSource, inspector *interact.Inspector, mm *minimap.Map) *Console {
	return &Console{
		controller:   controller,
		scene:        source,
		inspector:    inspector,
		minimap:      mm,
		out:          os.Stdout,
		tickInterval: defaultTickInterval,
		movePulse:    defaultMovePulse,
	}
}

// SetTickRate sets the fixed simulation rate in ticks per second.
func (c *Console) SetTickRate(rate int) {
	if rate > 0 {
		c.tickInterval = time.Second / time.Duration(rate)
	}
}

func (c *Console) SetOutput(w io.Writer) {
	if w != nil {
		c.out = w
	}
}

// Watch prints scene and mode notices from the bus. Printing happens on the
// tick goroutine.
func (c *Console) Watch(bus *event.Bus) func() {
	if bus == nil {
		return func() {}
	}
	unsubs := []func(){
		bus.Subscribe(event.EventSceneLoaded, func(raw any) {
			evt, ok := raw.(event.SceneLoadedEvent)
			if !ok {
				return
			}
			c.enqueue(func() {
				c.printf("[scene] loaded v%d: %d solids, %d members\r\n", evt.Version, evt.Solids, evt.Avatars)
			})
		}),
		bus.Subscribe(event.EventSceneLoadError, func(raw any) {
			evt, ok := raw.(event.SceneLoadErrorEvent)
			if !ok {
				return
			}
			c.enqueue(func() {
				c.printf("[scene] load failed (%s): %v\r\n", evt.Path, evt.Err)
			})
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.controller == nil {
		return fmt.Errorf("console controller is nil")
	}
	if c.scene == nil {
		return fmt.Errorf("console scene source is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		c.mu.Lock()
		c.termWidth = width
		c.mu.Unlock()
	}

	c.printf("[walk] console started (E look, W/A/S/D, Space, V overview, 1-9 viewpoints, I inspect, : commands)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl-C in raw mode
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	dt := c.tickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.step(dt)
		}
	}
}

// step runs queued actions, then one controller tick, then redraws.
func (c *Console) step(dt float64) {
	c.mu.Lock()
	actions := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, action := range actions {
		action()
	}

	input := c.getInput()
	if _, err := c.controller.Tick(input, dt); err != nil {
		slog.Debug("walk tick failed", "error", err)
	}
	c.renderStatusLine()
}

func (c *Console) enqueue(action func()) {
	c.mu.Lock()
	c.pending = append(c.pending, action)
	c.mu.Unlock()
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulseForward()
	case 's', 'S':
		c.pulseBackward()
	case 'a', 'A':
		c.pulseLeft()
	case 'd', 'D':
		c.pulseRight()
	case ' ':
		c.mu.Lock()
		c.jumpQueued = true
		c.mu.Unlock()
	case 'v', 'V':
		c.enqueue(func() { c.controller.ToggleMode() })
	case 'e', 'E':
		c.enqueue(func() {
			if !c.controller.Activate() {
				c.printf("\r\n[walk] look control is only available in first person\r\n")
			}
		})
	case 'i', 'I':
		c.enqueue(c.inspect)
	case 'm', 'M':
		c.enqueue(c.printMap)
	case '+', '=':
		c.enqueue(func() { c.controller.Zoom(1 / zoomStep) })
	case '-', '_':
		c.enqueue(func() { c.controller.Zoom(zoomStep) })
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence, bare ESC releases look control
		if reader.Buffered() == 0 {
			c.enqueue(c.controller.Deactivate)
			return
		}
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.enqueue(func() { c.controller.Look(-yawStep, 0) })
		case 'C': // right
			c.enqueue(func() { c.controller.Look(yawStep, 0) })
		case 'A': // up
			c.enqueue(func() { c.controller.Look(0, -pitchStep) })
		case 'B': // down
			c.enqueue(func() { c.controller.Look(0, pitchStep) })
		}
	default:
		if b >= '1' && b <= '9' {
			slot := int(b - '1')
			c.enqueue(func() {
				if _, err := c.controller.SelectViewpointAt(slot); err != nil {
					c.printf("\r\n[walk] %v\r\n", err)
				}
			})
		}
	}
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	c.printf("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		c.printf("\r\n")
		if cmd != "" {
			c.enqueue(func() { c.executeCommand(cmd) })
		}
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		c.printf("\r\n[walk] command cancelled\r\n")
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s ", buf)
		c.printf("\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		ps := c.controller.BodyState()
		pose := c.controller.Pose()
		c.printf("[walk] mode=%s active=%t pos=(%.3f,%.3f,%.3f) vel=(%.3f,%.3f,%.3f) ground=%t jump=%t\r\n",
			pose.Mode, c.controller.Active(),
			ps.Position.X(), ps.Position.Y(), ps.Position.Z(),
			ps.Velocity.X(), ps.VerticalVelocity, ps.Velocity.Y(),
			ps.Grounded, ps.CanJump,
		)
	case "snap":
		snap := c.scene.Snapshot()
		c.printf("[walk] scene ready=%t version=%d solids=%d members=%d digest=%016x\r\n",
			c.scene.Ready(), snap.Version, len(snap.Solids), len(snap.Avatars), snap.Digest)
	case "tp":
		x, y, z, ok := parseVec(parts)
		if !ok {
			c.printf("[walk] usage: :tp <x> <y> <z>\r\n")
			return
		}
		c.controller.Teleport(mgl64.Vec3{x, y, z})
		ps := c.controller.BodyState()
		c.printf("[walk] teleported to (%.3f, %.3f, %.3f)\r\n", ps.Position.X(), ps.Position.Y(), ps.Position.Z())
	case "look":
		x, y, z, ok := parseVec(parts)
		if !ok {
			c.printf("[walk] usage: :look <x> <y> <z>\r\n")
			return
		}
		c.controller.LookAt(mgl64.Vec3{x, y, z})
		c.printf("[walk] look at (%.3f, %.3f, %.3f)\r\n", x, y, z)
	case "view":
		if len(parts) != 2 {
			c.printf("[walk] viewpoints: %s\r\n", strings.Join(c.controller.Viewpoints().Names(), ", "))
			return
		}
		if err := c.controller.SelectViewpoint(parts[1]); err != nil {
			c.printf("[walk] %v\r\n", err)
		}
	case "mode":
		if len(parts) != 2 {
			c.printf("[walk] mode=%s\r\n", c.controller.Mode())
			return
		}
		switch parts[1] {
		case "first_person", "fp":
			c.controller.SetMode(movement.FirstPerson)
		case "overview", "ov":
			c.controller.SetMode(movement.Overview)
		default:
			c.printf("[walk] unknown mode: %s\r\n", parts[1])
		}
	case "map":
		c.printMap()
	case "inspect":
		c.inspect()
	default:
		c.printf("[walk] unknown command: %s\r\n", parts[0])
	}
}

// inspect casts the body's view ray. In overview the camera ray is used.
func (c *Console) inspect() {
	pose := c.controller.Pose()
	hit, ok := c.inspector.Inspect(pose.Position, pose.Forward())
	if !ok {
		c.printf("\r\n[walk] nobody there\r\n")
		return
	}
	a := hit.Avatar
	c.printf("\r\n[walk] %s (%s) %s, seat %s, %.1fm away\r\n", a.Name, a.Party, a.Constituency, a.Seat, hit.Distance)
}

func (c *Console) printMap() {
	if c.minimap == nil {
		return
	}
	snap := c.scene.Snapshot()
	lines := c.minimap.Render(snap.Solids, snap.Avatars)
	if len(lines) == 0 {
		c.printf("\r\n[walk] no chamber loaded\r\n")
		return
	}
	c.printf("\r\n")
	for _, line := range lines {
		c.printf("%s\r\n", line)
	}
}

func (c *Console) printHelp() {
	c.printf("[walk] keys:\r\n")
	c.printf("  E: take look control (first person), ESC: release\r\n")
	c.printf("  W/S/A/D: pulse movement (~180ms)\r\n")
	c.printf("  Space: jump\r\n")
	c.printf("  Arrows: look (first person) or orbit (overview)\r\n")
	c.printf("  +/-: zoom overview camera\r\n")
	c.printf("  V: toggle first person / overview\r\n")
	c.printf("  1-9: jump to viewpoint\r\n")
	c.printf("  I: inspect member in view\r\n")
	c.printf("  M: print minimap\r\n")
	c.printf("  X: clear all input\r\n")
	c.printf("  : enter command mode\r\n")
	c.printf("[walk] commands:\r\n")
	c.printf("  :tp <x> <y> <z>\r\n")
	c.printf("  :look <x> <y> <z>\r\n")
	c.printf("  :view [name]\r\n")
	c.printf("  :mode [first_person|overview]\r\n")
	c.printf("  :state\r\n")
	c.printf("  :snap\r\n")
	c.printf("  :map\r\n")
	c.printf("  :inspect\r\n")
	c.printf("  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	input := c.currentInput
	width := c.statusWidth
	termWidth := c.termWidth
	c.mu.Unlock()

	pose := c.controller.Pose()
	ps := c.controller.BodyState()
	look := "free"
	if c.controller.Active() {
		look = "held"
	}

	line := fmt.Sprintf(
		"[%s look:%s | FWD:%s BCK:%s L:%s R:%s | YAW:%.1f PIT:%.1f | X:%.2f Y:%.2f Z:%.2f ground:%t]",
		pose.Mode,
		look,
		boolLabel(input.Forward),
		boolLabel(input.Backward),
		boolLabel(input.Left),
		boolLabel(input.Right),
		pose.Yaw,
		pose.Pitch,
		pose.Position.X(),
		pose.Position.Y(),
		pose.Position.Z(),
		ps.Grounded,
	)

	// A wrapped status line would scroll on every tick.
	if termWidth > 1 && len(line) >= termWidth {
		line = line[:termWidth-1]
	}
	if termWidth > 1 && width >= termWidth {
		width = termWidth - 1
	}
	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	c.printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// getInput applies pulse expiry and consumes a queued jump.
func (c *Console) getInput() body.InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyMovementPulseLocked(time.Now())
	input := c.currentInput
	input.Jump = c.jumpQueued
	c.jumpQueued = false
	return input
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func parseVec(parts []string) (float64, float64, float64, bool) {
	if len(parts) != 4 {
		return 0, 0, 0, false
	}
	x, err1 := strconv.ParseFloat(parts[1], 64)
	y, err2 := strconv.ParseFloat(parts[2], 64)
	z, err3 := strconv.ParseFloat(parts[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (c *Console) pulseForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Forward = true
	c.forwardUntil = now.Add(c.movePulse)
	c.currentInput.Backward = false
	c.backwardUntil = time.Time{}
}

func (c *Console) pulseBackward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Backward = true
	c.backwardUntil = now.Add(c.movePulse)
	c.currentInput.Forward = false
	c.forwardUntil = time.Time{}
}

func (c *Console) pulseLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Left = true
	c.leftUntil = now.Add(c.movePulse)
	c.currentInput.Right = false
	c.rightUntil = time.Time{}
}

func (c *Console) pulseRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Right = true
	c.rightUntil = now.Add(c.movePulse)
	c.currentInput.Left = false
	c.leftUntil = time.Time{}
}

func (c *Console) applyMovementPulseLocked(now time.Time) {
	if !c.forwardUntil.IsZero() && !now.Before(c.forwardUntil) {
		c.currentInput.Forward = false
		c.forwardUntil = time.Time{}
	}
	if !c.backwardUntil.IsZero() && !now.Before(c.backwardUntil) {
		c.currentInput.Backward = false
		c.backwardUntil = time.Time{}
	}
	if !c.leftUntil.IsZero() && !now.Before(c.leftUntil) {
		c.currentInput.Left = false
		c.leftUntil = time.Time{}
	}
	if !c.rightUntil.IsZero() && !now.Before(c.rightUntil) {
		c.currentInput.Right = false
		c.rightUntil = time.Time{}
	}
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.currentInput = body.InputState{}
	c.jumpQueued = false
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
	c.mu.Unlock()
}
