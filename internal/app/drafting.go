package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/sudsboard/internal/domain"
)

// DraftAssetDescription asks the text completer for a short description of a SUDS asset type.
// Nothing is written to the store.
func (s *Service) DraftAssetDescription(ctx context.Context, name string, tags []domain.LocationTag) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ValidationInputError{Field: "name"}
	}
	return s.complete(ctx, buildAssetDescriptionPrompt(name, tags))
}

// DraftActivityAnalysis drafts a comment for one activity record from its asset, activity, and status.
// Nothing is written to the store.
func (s *Service) DraftActivityAnalysis(ctx context.Context, recordID string) (string, error) {
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return "", err
	}
	asset, err := s.GetAsset(ctx, record.AssetTypeID)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, buildActivityAnalysisPrompt(asset, record))
}

// complete calls the configured completer and normalizes its failures.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.completer == nil {
		return "", domain.ServiceError{
			HTTPStatus: http.StatusServiceUnavailable,
			Message:    ErrCompletionUnavailable.Error(),
			Err:        ErrCompletionUnavailable,
		}
	}
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("text completion failed", "err", err)
		return "", storeErr("complete text", err)
	}
	return strings.TrimSpace(text), nil
}

// buildAssetDescriptionPrompt builds the Spanish drafting prompt for an asset type.
func buildAssetDescriptionPrompt(name string, tags []domain.LocationTag) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genera una descripción detallada para un SUDS llamado %q. ", name)
	if labels := locationLabels(tags); len(labels) > 0 {
		fmt.Fprintf(&sb, "Si los tipos de ubicación son: %s. ", strings.Join(labels, ", "))
	}
	sb.WriteString("Enfócate en su función, beneficios y características principales en el contexto de Madrid. ")
	sb.WriteString("La descripción debe ser concisa y profesional, de unas 3-5 frases.")
	return sb.String()
}

// buildActivityAnalysisPrompt builds the Spanish drafting prompt for one activity record.
func buildActivityAnalysisPrompt(asset domain.AssetType, record domain.ActivityRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analiza la actividad de mantenimiento %q de la categoría %q para el SUDS %q. ", record.ActivityName, record.Category, asset.Name)
	if asset.Description != "" {
		fmt.Fprintf(&sb, "Descripción del SUDS: %s ", asset.Description)
	}
	fmt.Fprintf(&sb, "Estado propuesto: %s. ", record.Status.Label())
	if record.Frequency != "" {
		fmt.Fprintf(&sb, "Frecuencia: %s. ", record.Frequency)
	}
	if len(record.InvolvedContracts) > 0 {
		fmt.Fprintf(&sb, "Contratos implicados: %s. ", strings.Join(record.InvolvedContracts, ", "))
	}
	sb.WriteString("Redacta un comentario técnico breve, de 2-3 frases, que justifique el estado propuesto en el contexto de Madrid.")
	return sb.String()
}

// locationLabels maps tags to display labels.
func locationLabels(tags []domain.LocationTag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.Info().Label)
	}
	return out
}
