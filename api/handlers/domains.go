package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	er "github.com/storelift/domainstack/internal/errors"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/services"
)

type AddDomainRequest struct {
	Domain      string `json:"domain"`
	RedirectURL string `json:"redirectUrl"`
}

type UpdateDomainRequest struct {
	RedirectURL *string `json:"redirectUrl"`
}

type DomainsHandler struct {
	svc *services.Services
}

func NewDomainsHandler(s *services.Services) *DomainsHandler {
	return &DomainsHandler{
		svc: s,
	}
}

// ListDomains returns all domains of the calling tenant
func (h *DomainsHandler) ListDomains() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.ListDomains")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domains, err := h.svc.DomainService.GetDomains(ctx)
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"domains": domains})
	}
}

// AddDomain attaches a custom domain to the calling tenant
func (h *DomainsHandler) AddDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.AddDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req AddDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Domain == "" {
			message := "Missing required field: domain"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		domain, err := h.svc.DomainService.AddDomain(ctx, req.Domain, req.RedirectURL)
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"domain": domain})
	}
}

// GetDomain returns one domain of the calling tenant
func (h *DomainsHandler) GetDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.GetDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, err := h.svc.DomainService.GetDomain(ctx, c.Param("id"))
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"domain": domain})
	}
}

// UpdateDomain changes the redirect target of a domain
func (h *DomainsHandler) UpdateDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.UpdateDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req UpdateDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		domain, err := h.svc.DomainService.UpdateDomain(ctx, c.Param("id"), req.RedirectURL)
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"domain": domain})
	}
}

// DeleteDomain detaches a domain from the calling tenant
func (h *DomainsHandler) DeleteDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.DeleteDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if err := h.svc.DomainService.DeleteDomain(ctx, c.Param("id")); err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// GetDNSRecords returns the DNS records the tenant must create for the domain
func (h *DomainsHandler) GetDNSRecords() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.GetDNSRecords")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		records, err := h.svc.DomainService.RequiredDNSRecords(ctx, c.Param("id"))
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

// ListVerificationAttempts returns the recent verification attempts of a domain
func (h *DomainsHandler) ListVerificationAttempts() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.ListVerificationAttempts")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		attempts, err := h.svc.DomainService.ListVerificationAttempts(ctx, c.Param("id"), limit)
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"attempts": attempts})
	}
}

// VerifyDomain runs a verification attempt right away
func (h *DomainsHandler) VerifyDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.VerifyDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		// ownership check before the cross-tenant verification path
		domain, err := h.svc.DomainService.GetDomain(ctx, c.Param("id"))
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		result, err := h.svc.VerificationService.RequestVerification(ctx, domain.ID, true)
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// SetPrimaryDomain makes the domain the tenant's primary
func (h *DomainsHandler) SetPrimaryDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.SetPrimaryDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if err := h.svc.DomainService.SetPrimaryDomain(ctx, c.Param("id")); err != nil {
			respondDomainError(c, span, err)
			return
		}

		domain, err := h.svc.DomainService.GetDomain(ctx, c.Param("id"))
		if err != nil {
			respondDomainError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"domain": domain})
	}
}

func respondDomainError(c *gin.Context, span opentracing.Span, err error) {
	switch {
	case errors.Is(err, er.ErrInvalidHostname),
		errors.Is(err, er.ErrNotVerified),
		errors.Is(err, er.ErrTenantMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, er.ErrDomainNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, er.ErrDuplicateDomain):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, er.ErrRecentlyChecked):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
