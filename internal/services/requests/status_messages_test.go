package requests

import (
	"strings"
	"testing"

	"github.com/tedex09/portalvd/internal/domain/enums"
)

func TestStatusLabelRejectedIncludesReason(t *testing.T) {
	label := StatusLabel(enums.RequestStatusRejected, "Baixa demanda")
	if !strings.Contains(label, "Motivo: Baixa demanda") {
		t.Fatalf("expected reason in label, got %q", label)
	}
}

func TestStatusLabelRejectedWithoutReason(t *testing.T) {
	label := StatusLabel(enums.RequestStatusRejected, "  ")
	if strings.Contains(label, "Motivo") {
		t.Fatalf("expected fallback label without reason, got %q", label)
	}
}

func TestBuildWhatsappMessage(t *testing.T) {
	message := BuildWhatsappMessage("Ana", "Duna", enums.RequestStatusCompleted, "")

	for _, want := range []string{"Olá Ana", `"Duna"`, "concluída com sucesso"} {
		if !strings.Contains(message, want) {
			t.Fatalf("expected %q in message, got %q", want, message)
		}
	}
}
