package entity

import "sort"

const (
	LabelFocus   = "focus"
	LabelUnfocus = "unfocus"
)

// BoundingBox is in pixels of the image the detection was made on.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Detection struct {
	Box        BoundingBox `json:"box"`
	ClassID    int         `json:"class_id"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
}

type DetectionSummary struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func Summarize(detections []Detection) DetectionSummary {
	summary := DetectionSummary{
		Counts: make(map[string]int),
		Total:  len(detections),
	}
	for _, d := range detections {
		summary.Counts[d.Label]++
	}
	return summary
}

func (s DetectionSummary) Count(label string) int {
	return s.Counts[label]
}

func (s DetectionSummary) Focus() int {
	return s.Count(LabelFocus)
}

func (s DetectionSummary) Unfocus() int {
	return s.Count(LabelUnfocus)
}

// Labels returns the counted labels in alphabetical order.
func (s DetectionSummary) Labels() []string {
	labels := make([]string, 0, len(s.Counts))
	for label := range s.Counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
