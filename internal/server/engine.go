package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/bazimogmbh/easypurchase/internal/catalog/domain"
)

type entitlementResponse struct {
	IsSubscribed        bool     `json:"is_subscribed"`
	IsLifetime          bool     `json:"is_lifetime_subscription"`
	PurchasedProductIDs []string `json:"purchased_product_ids"`
}

type offerResponse struct {
	ProductID      string `json:"product_id"`
	Period         string `json:"period,omitempty"`
	LocalizedPrice string `json:"localized_price,omitempty"`
	TrialPeriod    string `json:"trial_period,omitempty"`
	IsLifetime     bool   `json:"is_lifetime"`
	IsDefault      bool   `json:"is_default"`
}

type offersResponse struct {
	Offers []offerResponse `json:"offers"`
}

type purchaseRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) getEntitlements(c *gin.Context) {
	state := s.entitlementSvc.Current()
	c.JSON(http.StatusOK, entitlementResponse{
		IsSubscribed:        state.IsSubscribed,
		IsLifetime:          state.IsLifetime,
		PurchasedProductIDs: state.PurchasedProductIDs,
	})
}

func (s *Server) listOffers(c *gin.Context) {
	offers := s.catalogSvc.Offers()
	defaultOffer, hasDefault := s.catalogSvc.DefaultOffer()

	out := offersResponse{Offers: make([]offerResponse, 0, len(offers))}
	for _, offer := range offers {
		out.Offers = append(out.Offers, toOfferResponse(offer, hasDefault && offer.ProductID == defaultOffer.ProductID))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createPurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	outcome, err := s.purchaseSvc.Purchase(c.Request.Context(), req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) createRestore(c *gin.Context) {
	outcome, err := s.restoreSvc.Restore(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// activate mirrors the application-foreground event for callers driving
// the engine over HTTP. The attribution pipeline guards itself against
// repeated activations.
func (s *Server) activate(c *gin.Context) {
	if s.pipeline != nil {
		go s.pipeline.HandleActivation(context.WithoutCancel(c.Request.Context()))
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func toOfferResponse(offer catalogdomain.Offer, isDefault bool) offerResponse {
	resp := offerResponse{
		ProductID:      offer.ProductID,
		Period:         offer.Period(),
		LocalizedPrice: offer.LocalizedPrice(),
		IsLifetime:     offer.IsLifetime,
		IsDefault:      isDefault,
	}
	if trial, ok := offer.TrialPeriod(); ok {
		resp.TrialPeriod = trial
	}
	return resp
}
