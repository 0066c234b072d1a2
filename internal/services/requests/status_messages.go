package requests

import (
	"fmt"
	"strings"

	"github.com/tedex09/portalvd/internal/domain/enums"
)

// StatusLabel returns the user-facing pt-BR description for a status change.
// For rejections the reason is appended when present.
func StatusLabel(status enums.RequestStatus, rejectionReason string) string {
	switch status {
	case enums.RequestStatusPending:
		return "Sua solicitação está pendente de análise."
	case enums.RequestStatusInProgress:
		return "Sua solicitação está em análise pela nossa equipe."
	case enums.RequestStatusCompleted:
		return "Sua solicitação foi concluída com sucesso!"
	case enums.RequestStatusRejected:
		if reason := strings.TrimSpace(rejectionReason); reason != "" {
			return fmt.Sprintf("Sua solicitação foi rejeitada. Motivo: %s", reason)
		}
		return "Sua solicitação foi rejeitada. Entre em contato para mais informações."
	}
	return string(status)
}

// BuildWhatsappMessage renders the notification body sent on a status change.
func BuildWhatsappMessage(userName, mediaTitle string, status enums.RequestStatus, rejectionReason string) string {
	return fmt.Sprintf(
		"*Atualização de Solicitação*\n\nOlá %s,\n\nSua solicitação para \"%s\" teve o status atualizado para: *%s*\n\nAcesse a plataforma para mais detalhes.",
		userName,
		mediaTitle,
		StatusLabel(status, rejectionReason),
	)
}
