package usecase

import (
	"strings"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

// Publishers maps a platform name to the client that publishes there.
type Publishers map[string]repository.IPublisher

func NewPublishers(publishers ...repository.IPublisher) Publishers {
	m := make(Publishers, len(publishers))
	for _, p := range publishers {
		if p == nil {
			continue
		}
		m[strings.ToLower(p.Platform())] = p
	}
	return m
}

func (p Publishers) For(platform string) (repository.IPublisher, bool) {
	if platform == "" {
		platform = model.PlatformTikTok
	}
	pub, ok := p[strings.ToLower(platform)]
	return pub, ok
}

// Connector returns the OAuth connect flow for platform when its publisher supports one.
func (p Publishers) Connector(platform string) (repository.IPlatformConnector, bool) {
	pub, ok := p.For(platform)
	if !ok {
		return nil, false
	}
	c, ok := pub.(repository.IPlatformConnector)
	return c, ok
}
