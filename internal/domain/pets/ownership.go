package pets

import "context"

// OwnerOf expone el ownerUserID de una mascota.
// booking lo consume vía interfaz para no importar pets directamente.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
