package service

import (
	"context"

	"storya/internal/models"
	"storya/internal/repository"
	"storya/pkg/verify"
)

// VerificationService refreshes the cached payout verification flags on a user.
// The flags gate payout methods; a refresh is triggered by the user before
// requesting a payout with a method they have not used yet.
type VerificationService struct {
	verifier verify.Verifier
	userRepo *repository.UserRepository
}

func NewVerificationService(verifier verify.Verifier, userRepo *repository.UserRepository) *VerificationService {
	return &VerificationService{verifier: verifier, userRepo: userRepo}
}

func (s *VerificationService) RefreshSelfEmployed(ctx context.Context, userID uint, taxID string) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	res, err := s.verifier.VerifySelfEmployed(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetSelfEmployedVerified(userID, res.Verified); err != nil {
		return nil, err
	}
	u.SelfEmployedVerified = res.Verified
	return u, nil
}

func (s *VerificationService) RefreshWallet(ctx context.Context, userID uint, walletID string) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	res, err := s.verifier.VerifyWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetWalletVerified(userID, res.Verified); err != nil {
		return nil, err
	}
	u.WalletVerified = res.Verified
	return u, nil
}
