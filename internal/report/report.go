// Package report renders a finalized or in-progress draft into a
// printable document. The renderer is read-only: it takes a snapshot
// from the record store and never mutates it.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vistoriaapp/core/internal/models"
)

// Renderer converts inspection drafts to markdown and printable HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a report renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Markdown renders the draft as a markdown report: property header,
// then one section per room with condition, description, and media
// counts.
func (r *Renderer) Markdown(insp *models.Inspection) string {
	var b strings.Builder

	title := "Relatório de Vistoria"
	if code := insp.PropertyData["propertyCode"]; code != "" {
		title += " — " + code
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Informações do Imóvel\n\n")
	writeField(&b, "Tipo de vistoria", inspectionTypeLabel(insp.PropertyData["inspectionType"]))
	writeField(&b, "Código", insp.PropertyData["propertyCode"])
	writeField(&b, "Endereço", formatAddress(insp.PropertyData))
	writeField(&b, "Tipo", insp.PropertyData["propertyType"])
	writeField(&b, "Área total", areaLabel(insp.PropertyData["totalArea"]))
	writeField(&b, "Status", statusLabel(insp))
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Cômodos Vistoriados (%d)\n\n", len(insp.Rooms))
	if len(insp.Rooms) == 0 {
		b.WriteString("Nenhum cômodo registrado.\n\n")
	}
	for _, room := range insp.Rooms {
		fmt.Fprintf(&b, "### %s\n\n", room.DisplayName())
		writeField(&b, "Condição", room.Condition.Label())
		if room.Description != "" {
			writeField(&b, "Descrição", room.Description)
		}
		writeField(&b, "Mídia", fmt.Sprintf("%d foto(s), %d áudio(s)",
			len(room.Photos), len(room.Audios)))
		b.WriteString("\n")
	}

	if len(insp.EditHistory) > 0 {
		b.WriteString("## Histórico\n\n")
		for _, entry := range insp.EditHistory {
			fmt.Fprintf(&b, "- %s: %s (%s)\n",
				entry.Timestamp.Format("02/01/2006 15:04"),
				historyLabel(entry.Action), entry.Actor)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the draft as a printable HTML document.
func (r *Renderer) HTML(insp *models.Inspection) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(r.Markdown(insp)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		value = "Não informado"
	}
	fmt.Fprintf(b, "**%s:** %s  \n", label, value)
}

func formatAddress(p models.PropertyData) string {
	street := p["address"]
	if street == "" {
		return ""
	}
	if n := p["addressNumber"]; n != "" {
		street += ", " + n
	}
	parts := []string{street}
	if v := p["neighborhood"]; v != "" {
		parts = append(parts, v)
	}
	if v := p["city"]; v != "" {
		city := v
		if zip := p["zipCode"]; zip != "" {
			city += " - " + zip
		}
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

func inspectionTypeLabel(t string) string {
	switch t {
	case "entrada":
		return "Vistoria de Entrada"
	case "saida":
		return "Vistoria de Saída"
	default:
		return t
	}
}

func areaLabel(area string) string {
	if area == "" {
		return ""
	}
	return area + " m²"
}

func statusLabel(insp *models.Inspection) string {
	if insp.Status == models.StatusCompleted {
		label := "Finalizada"
		if insp.CompletedAt != nil {
			label += " em " + insp.CompletedAt.Format("02/01/2006")
		}
		return label
	}
	return fmt.Sprintf("Em andamento (etapa %d/4)", insp.CurrentStep)
}

func historyLabel(action models.HistoryAction) string {
	switch action {
	case models.ActionFinalized:
		return "finalizada"
	case models.ActionReopened:
		return "reaberta"
	default:
		return string(action)
	}
}
