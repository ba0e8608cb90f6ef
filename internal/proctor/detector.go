package proctor

import (
	"math/rand/v2"
	"time"

	"github.com/stemsi/candidate-portal/internal/model"
)

// Random is the source the simulated detectors draw from.
type Random interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// DefaultRandom draws from the process-wide math/rand/v2 source.
var DefaultRandom Random = globalRandom{}

// Detector is a periodic check. Check returns nil when nothing was spotted.
type Detector struct {
	Name     string
	Interval time.Duration
	Check    func(r Random) *model.Violation
}

// DefaultDetectors returns the simulated face, sound and inspect checks.
func DefaultDetectors() []Detector {
	return []Detector{FaceDetector(), SoundDetector(), InspectDetector()}
}

// FaceDetector fires every 10 s: 8% no face or multiple faces, otherwise 5%
// poor lighting.
func FaceDetector() Detector {
	last := time.Now()
	return Detector{
		Name:     "face",
		Interval: 10 * time.Second,
		Check: func(r Random) *model.Violation {
			now := time.Now()
			since := now.Sub(last)
			last = now

			if r.Float64() < 0.08 {
				t, msg := model.ViolationNoFace, "No face detected in camera view"
				if r.Float64() < 0.5 {
					t, msg = model.ViolationMultipleFaces, "Multiple faces detected in camera view"
				}
				v := model.NewViolation(t, model.SeverityHigh, msg, map[string]any{
					"detectionType":       "face_detection",
					"durationSinceLastMs": since.Milliseconds(),
				})
				return &v
			}
			if r.Float64() < 0.05 {
				v := model.NewViolation(model.ViolationCustom, model.SeverityMedium, "Insufficient lighting detected", map[string]any{
					"detectionType": "lighting_check",
				})
				return &v
			}
			return nil
		},
	}
}

// SoundDetector fires every 15 s with 4% probability.
func SoundDetector() Detector {
	return Detector{
		Name:     "sound",
		Interval: 15 * time.Second,
		Check: func(r Random) *model.Violation {
			if r.Float64() >= 0.04 {
				return nil
			}
			v := model.NewViolation(model.ViolationCustom, model.SeverityMedium, "Unusual sound detected", map[string]any{
				"detectionType": "audio_analysis",
			})
			return &v
		},
	}
}

// InspectDetector fires every 20 s with 3% probability.
func InspectDetector() Detector {
	return Detector{
		Name:     "inspect",
		Interval: 20 * time.Second,
		Check: func(r Random) *model.Violation {
			if r.Float64() >= 0.03 {
				return nil
			}
			t, msg := model.ViolationInspectTab, "Inspect element detected"
			if r.Float64() < 0.5 {
				t, msg = model.ViolationInspectWindow, "Developer tools detected"
			}
			v := model.NewViolation(t, model.SeverityHigh, msg, map[string]any{
				"detectionType": "devtools_check",
			})
			return &v
		},
	}
}
