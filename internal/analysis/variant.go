package analysis

import (
	"github.com/skncr-ai/scanner/internal/camera"
	"github.com/skncr-ai/scanner/internal/capture"
	"github.com/skncr-ai/scanner/internal/schema"
)

const dermatologistInstruction = `You are Dr. Aura, a clinical yet empathetic AI Dermatologist.
Analyze facial skin images for: Acne, Redness, Texture, Wrinkles, Dark Circles.
Tone: Supportive, professional.
Output: Valid JSON matching the required schema.`

const chemistInstruction = `You are The Chemist. Analyze ingredient lists against a user profile.
- 'YOU NEED THIS': Solves primary concern.
- 'YOU DON'T NEED THIS': Triggers sensitivities or avoid list.
- 'NEUTRAL': Maintenance.
Output: Valid JSON matching schema. Strictly return ONLY the JSON block.`

// Variant is everything that differs between the face and product pipelines
type Variant[T any] struct {
	Name              string
	Contract          schema.Contract
	SystemInstruction string
	// Prompt builds the user prompt from the request context
	Prompt  func(context string) string
	Capture capture.Options
	Facing  camera.FacingMode
	// Normalize, when set, tidies a decoded result before it is returned
	Normalize func(*T)
}

// Face analyses a selfie for skin metrics
var Face = Variant[schema.FaceAnalysis]{
	Name:              "face",
	Contract:          schema.FaceContract,
	SystemInstruction: dermatologistInstruction,
	Prompt: func(string) string {
		return "Analyze the skin condition. Strictly return JSON only."
	},
	Capture: capture.Options{
		Quality:      capture.FaceQuality,
		MaxDimension: capture.DefaultMaxDimension,
	},
	Facing: camera.FacingUser,
	Normalize: func(r *schema.FaceAnalysis) {
		for i := range r.Metrics {
			r.Metrics[i].Concern = r.Metrics[i].Concern.Normalize()
		}
	},
}

// Product analyses an ingredient label against a user profile
var Product = Variant[schema.ProductAnalysis]{
	Name:              "product",
	Contract:          schema.ProductContract,
	SystemInstruction: chemistInstruction,
	Prompt: func(context string) string {
		return "Analyze ingredients against this profile: " + context + ". Strictly return JSON only."
	},
	Capture: capture.Options{
		Quality:      capture.ProductQuality,
		MaxDimension: capture.DefaultMaxDimension,
	},
	Facing: camera.FacingEnvironment,
}
