package handlers

import "github.com/storelift/domainstack/services"

type APIHandlers struct {
	Domains *DomainsHandler
}

func InitHandlers(s *services.Services) *APIHandlers {
	return &APIHandlers{
		Domains: NewDomainsHandler(s),
	}
}
