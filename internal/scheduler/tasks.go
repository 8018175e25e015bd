package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBatchRequalify = "leads.requalify.batch"

type BatchRequalifyPayload struct {
	ActorID  string   `json:"actorId"`
	Statuses []string `json:"statuses"`
}

func NewBatchRequalifyTask(payload BatchRequalifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchRequalify, data), nil
}

func ParseBatchRequalifyPayload(task *asynq.Task) (BatchRequalifyPayload, error) {
	var payload BatchRequalifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BatchRequalifyPayload{}, err
	}
	return payload, nil
}
