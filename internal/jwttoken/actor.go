package jwttoken

import (
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
)

// ActorValidator adapts Service to the middleware's actor contract,
// mapping validated claims to a domain actor. A submitter token without a
// party claim is rejected; a reviewer token must not carry one.
type ActorValidator struct {
	service *Service
}

func NewActorValidator(service *Service) *ActorValidator {
	return &ActorValidator{service: service}
}

func (v *ActorValidator) ValidateToken(tokenString string) (domain.Actor, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return actorFromClaims(claims)
}

func actorFromClaims(claims *Claims) (domain.Actor, error) {
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleSubmitter, domain.RoleAssessor, domain.RoleValidator:
	default:
		return domain.Actor{}, dErrors.Newf(dErrors.CodeUnauthorized, "unknown role %q", claims.Role)
	}

	actor := domain.Actor{Subject: claims.Subject, Role: role}
	if role == domain.RoleSubmitter {
		if claims.Party == "" {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "submitter token is missing the party claim")
		}
		party, err := domain.ParsePartyID(claims.Party)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "submitter token carries an invalid party claim")
		}
		actor.Party = party
	} else if claims.Party != "" {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "reviewer token must not carry a party claim")
	}
	return actor, nil
}
