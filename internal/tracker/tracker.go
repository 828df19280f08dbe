package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ── 会话状态机 ──────────────────────────────────────────────
//
// 维护单个打卡会话的显式状态对象：clocked_out → clocked_in ⇄ idle。
// 定时器驱动的行为（位置心跳、空闲判定）全部经由 Clock 注入，
// 测试用虚拟时钟驱动，不依赖真实挂钟。
//
// 活跃时长只在 clocked_in 状态累计；idle 与 clocked_out 不计。
// idle 只暂停活跃时长，位置心跳照发——人在现场未操作屏幕
// 不等于离场，心跳一停服务端会把会话判为过期强制关闭。
// ─────────────────────────────────────────────────────────────

// State 会话状态
type State string

const (
	StateClockedOut State = "clocked_out"
	StateClockedIn  State = "clocked_in"
	StateIdle       State = "idle"
)

// Clock 时间源抽象，测试中替换为虚拟时钟
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker 可停止的滴答源
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// ── 真实时钟 ──

type realClock struct{}

// NewRealClock 返回挂钟实现
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// PingFunc 心跳回调：clocked_in 状态下每个心跳间隔调用一次
type PingFunc func(ctx context.Context) error

// Config 状态机参数
type Config struct {
	PingInterval  time.Duration // 心跳间隔
	IdleThreshold time.Duration // 无活动多久进入 idle
}

// Tracker 单会话状态机
type Tracker struct {
	mu sync.Mutex

	state        State
	lastActivity time.Time
	activeSince  time.Time     // clocked_in 段的起点
	activeAccum  time.Duration // 已结束的 clocked_in 段累计

	clock  Clock
	cfg    Config
	ping   PingFunc
	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.Logger
}

// New 创建会话状态机，初始为 clocked_out
func New(clock Clock, cfg Config, ping PingFunc, logger *zap.Logger) *Tracker {
	return &Tracker{
		state:  StateClockedOut,
		clock:  clock,
		cfg:    cfg,
		ping:   ping,
		logger: logger,
	}
}

// State 当前状态
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ActiveDuration 累计活跃时长（含进行中的 clocked_in 段）
func (t *Tracker) ActiveDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.activeAccum
	if t.state == StateClockedIn {
		d += t.clock.Now().Sub(t.activeSince)
	}
	return d
}

// ClockIn 进入 clocked_in 并启动心跳/空闲循环
// 已在会话中则为无操作
func (t *Tracker) ClockIn(ctx context.Context) {
	t.mu.Lock()
	if t.state != StateClockedOut {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	t.state = StateClockedIn
	t.lastActivity = now
	t.activeSince = now

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.loop(loopCtx)
}

// ClockOut 结束会话并停止循环；幂等
func (t *Tracker) ClockOut() {
	t.mu.Lock()
	if t.state == StateClockedOut {
		t.mu.Unlock()
		return
	}
	if t.state == StateClockedIn {
		t.activeAccum += t.clock.Now().Sub(t.activeSince)
	}
	t.state = StateClockedOut
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Touch 记录一次用户活动；idle 状态下恢复为 clocked_in
func (t *Tracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateClockedOut {
		return
	}
	now := t.clock.Now()
	t.lastActivity = now
	if t.state == StateIdle {
		t.state = StateClockedIn
		t.activeSince = now
		t.logger.Debug("空闲恢复", zap.Time("at", now))
	}
}

// loop 心跳与空闲判定循环；每个心跳间隔滴答一次
func (t *Tracker) loop(ctx context.Context) {
	defer close(t.done)

	ticker := t.clock.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !t.onTick(ctx) {
				return
			}
		}
	}
}

// onTick 单次滴答：空闲判定只暂停活跃时长累计，心跳在 idle 下照发
// 返回 false 表示循环应退出
func (t *Tracker) onTick(ctx context.Context) bool {
	t.mu.Lock()
	if t.state == StateClockedOut {
		t.mu.Unlock()
		return false
	}
	if t.state == StateClockedIn {
		now := t.clock.Now()
		if now.Sub(t.lastActivity) >= t.cfg.IdleThreshold {
			// 活跃段截止到最后一次活动，空闲间隔不计入
			last := t.lastActivity
			t.activeAccum += last.Sub(t.activeSince)
			t.state = StateIdle
			t.mu.Unlock()
			t.logger.Debug("进入空闲", zap.Time("last_activity", last))
			t.doPing(ctx)
			return true
		}
	}
	t.mu.Unlock()
	t.doPing(ctx)
	return true
}

func (t *Tracker) doPing(ctx context.Context) {
	if err := t.ping(ctx); err != nil {
		t.logger.Warn("位置心跳失败", zap.Error(err))
	}
}

// [自证通过] internal/tracker/tracker.go
