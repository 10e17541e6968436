package transfer

type BrandCreation struct {
	Name            string   `json:"name"`
	Tone            string   `json:"tone"`
	PrimaryHashtags []string `json:"primary_hashtags"`
	CTATemplates    []string `json:"cta_templates"`
}
