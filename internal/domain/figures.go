package domain

import "fmt"

// FigureKind is one of the standard report figures.
type FigureKind string

const (
	FigureLocation      FigureKind = "Project_Location"
	FigureNWI           FigureKind = "NWI"
	FigureADID          FigureKind = "ADID"
	FigureSoils         FigureKind = "Soils"
	FigureOverview      FigureKind = "Overview_Map"
	FigureDetermination FigureKind = "Determination_Map"
)

// MapDocumentExt is the file extension of map documents.
const MapDocumentExt = ".mapx"

// Figure is a numbered report figure.
type Figure struct {
	Number int
	Kind   FigureKind
}

// FileName is the map document name for the figure, e.g. "Fig3_ADID.mapx".
func (f Figure) FileName() string {
	return fmt.Sprintf("Fig%d_%s%s", f.Number, f.Kind, MapDocumentExt)
}

// Figures returns the ordered figure set for a District 1 status and project size.
func Figures(status District1Status, size ProjectSize) []Figure {
	kinds := []FigureKind{FigureLocation, FigureNWI}
	switch status {
	case District1ADID:
		kinds = append(kinds, FigureADID, FigureSoils)
	case District1NoADID:
		kinds = append(kinds, FigureSoils)
	}
	if size == SizeLarge {
		kinds = append(kinds, FigureOverview)
	}
	kinds = append(kinds, FigureDetermination)

	figures := make([]Figure, len(kinds))
	for i, k := range kinds {
		figures[i] = Figure{Number: i + 1, Kind: k}
	}
	return figures
}
