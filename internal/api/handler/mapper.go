package handler

import (
	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// --- Request → Service input ---

func toCreateClientInput(req clientRequest) ports.CreateClientInput {
	return ports.CreateClientInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Address:         req.Address,
		Phone:           req.Phone,
		Email:           req.Email,
		Notes:           req.Notes,
		SendCredentials: req.SendCredentials,
	}
}

func toUpdateClientInput(req clientRequest) ports.UpdateClientInput {
	return ports.UpdateClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Notes:     req.Notes,
	}
}

func toChangePasswordInput(req changePasswordRequest) ports.ChangePasswordInput {
	return ports.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}
}

func toCreateStaffInput(req staffRequest) ports.CreateStaffInput {
	return ports.CreateStaffInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	}
}

// --- Domain → Response ---

func toLoginResponse(res *ports.LoginResult) loginResponse {
	claims := res.Token.Claims
	out := loginResponse{
		ID:        claims.ID,
		Role:      string(claims.Role),
		Type:      string(claims.Kind),
		Token:     res.Token.Raw,
		ExpiresAt: claims.ExpiresAt,
		Message:   "login successful",
	}
	switch {
	case res.Client != nil:
		out.Identifier = res.Client.Identifier
		out.FirstName = res.Client.FirstName
		out.LastName = res.Client.LastName
		out.Email = res.Client.Email
	case res.Staff != nil:
		out.FirstName = res.Staff.FirstName
		out.LastName = res.Staff.LastName
		out.Email = res.Staff.Email
	}
	return out
}

func toVerifyResponse(claims *domain.TokenClaims) verifyResponse {
	exp := claims.ExpiresAt
	out := verifyResponse{
		Authenticated: true,
		ID:            claims.ID,
		Subject:       claims.Subject,
		Role:          string(claims.Role),
		Type:          string(claims.Kind),
		Email:         claims.Email,
		ExpiresAt:     &exp,
	}
	if claims.Kind == domain.KindClient {
		out.Identifier = claims.Subject
	}
	return out
}

func toClientResponse(c *domain.Client) clientResponse {
	return clientResponse{
		ID:              c.ID,
		Identifier:      c.Identifier,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Address:         c.Address,
		Phone:           c.Phone,
		Email:           c.Email,
		Active:          c.Active,
		CredentialsSent: c.CredentialsSent,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toClientResponses(cs []*domain.Client) []clientResponse {
	out := make([]clientResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClientResponse(c))
	}
	return out
}

func toStaffResponse(u *domain.StaffUser) staffResponse {
	return staffResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
