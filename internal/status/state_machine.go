package status

import "fmt"

// StateMachine 文档状态机
type StateMachine struct{}

// NewStateMachine 创建文档状态机实例
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// 状态转换规则
// failed -> processing 允许外部任务运行器重投后重新处理（幂等upsert保证安全）
var documentTransitions = map[string][]string{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusIndexed, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

// CanTransition 检查是否可以进行状态转换
func (sm *StateMachine) CanTransition(from, to string) bool {
	for _, allowed := range documentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Validate 校验转换，非法转换返回错误
func (sm *StateMachine) Validate(from, to string) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminal 是否为终态
func (sm *StateMachine) IsTerminal(state string) bool {
	return state == StatusIndexed || state == StatusFailed
}
