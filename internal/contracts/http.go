package contracts

// SuccessResponse and ErrorResponse are the envelope used by internal
// endpoints (health, admin). The funnel endpoints below keep the exact
// wire shapes the advertiser network and the web client already speak.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type PostbackData struct {
	OfferID       string `json:"offerId"`
	UserID        string `json:"userId"`
	Status        string `json:"status"`
	Payout        string `json:"payout,omitempty"`
	Timestamp     string `json:"timestamp"`
	ConversionKey string `json:"conversionKey,omitempty"`
}

type PostbackResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Details  string        `json:"details,omitempty"`
	Data     *PostbackData `json:"data,omitempty"`
	Received any           `json:"received,omitempty"`
}

type LeadsErrorResponse struct {
	Error        string `json:"error"`
	Details      string `json:"details"`
	FallbackData []any  `json:"fallback_data"`
}

type OffersResponse struct {
	Success        bool            `json:"success"`
	Offers         []any           `json:"offers"`
	Country        string          `json:"country"`
	TotalAvailable int             `json:"totalAvailable"`
	UserID         string          `json:"userId"`
	Metadata       *OffersMetadata `json:"metadata,omitempty"`
	Error          string          `json:"error,omitempty"`
	Details        string          `json:"details,omitempty"`
}

type OffersMetadata struct {
	DetectedCountry string `json:"detectedCountry"`
	ClientIP        string `json:"clientIp"`
	Timestamp       string `json:"timestamp"`
}

type GeoResponse struct {
	Country string `json:"country"`
	Source  string `json:"source"`
	IP      string `json:"ip"`
	Warning string `json:"warning,omitempty"`
}

type UserLookupResponse struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

type UserLookupError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ClaimRequest struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Rewards  []string `json:"rewards"`
}

type ClaimResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}
