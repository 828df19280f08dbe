package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrEntryLocked 工时记录已被周结算锁定，任何模块不得再修改
var ErrEntryLocked = errors.New("工时记录已锁定，不可修改")

// ErrDuplicateAlert 告警唯一约束冲突：同 (人员, 项目, 类型, 日期) 已存在告警
var ErrDuplicateAlert = errors.New("该告警已存在")
