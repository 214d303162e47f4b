package types

type LLMPricing struct {
	Currency   string  `json:"currency"`
	Unit       string  `json:"unit"`
	InputCost  float64 `json:"inputCost"`
	OutputCost float64 `json:"outputCost,omitempty"`
}

// LLM describes one selectable model.
type LLM struct {
	ModelID         string      `json:"modelId"`
	ModelName       string      `json:"modelName"`
	Provider        string      `json:"provider"`
	HostedID        string      `json:"hostedId"`
	PlatformLink    string      `json:"platformLink"`
	ImageInput      bool        `json:"imageInput"`
	Pricing         *LLMPricing `json:"pricing,omitempty"`
	MaxOutputTokens int         `json:"maxOutputTokens,omitempty"`
}
