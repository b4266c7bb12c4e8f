package modelapi

import (
	"modelPilot/business/bandit"
	"modelPilot/business/registry"
	"time"
)

// ClientFactory stamps out RemoteModel clients with a shared timeout.
type ClientFactory struct {
	timeout time.Duration
}

var _ registry.ModelClientFactory = (*ClientFactory)(nil)

func NewClientFactory(timeout time.Duration) *ClientFactory {
	return &ClientFactory{timeout: timeout}
}

func (f *ClientFactory) NewClient(name, baseURL, task, apiKey string) bandit.Model {
	return NewRemoteModel(ModelConfig{
		Name:    name,
		BaseURL: baseURL,
		Task:    task,
		APIKey:  apiKey,
		Timeout: f.timeout,
	})
}
