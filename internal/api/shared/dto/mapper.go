package dto

import (
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// MapPlantationToDTO maps a plantation row to its public view
func MapPlantationToDTO(p schema.Plantation) Plantation {
	return Plantation{
		ID:                 p.ID,
		FarmerID:           p.FarmerID,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		TreeType:           p.TreeType,
		Area:               p.Area,
		NDVI:               p.NDVI,
		Credits:            p.Credits,
		ImagePath:          p.ImageURL,
		VerificationStatus: p.VerificationStatus,
		CreatedAt:          p.CreatedAt,
		VerifiedAt:         p.VerifiedAt,
	}
}

// MapPlantationsToDTO maps a list of plantations, never returning nil
func MapPlantationsToDTO(plantations []schema.Plantation) []Plantation {
	out := make([]Plantation, 0, len(plantations))
	for _, p := range plantations {
		out = append(out, MapPlantationToDTO(p))
	}
	return out
}

// MapPurchaseToDTO maps a purchase row to its public view
func MapPurchaseToDTO(p schema.Purchase) Purchase {
	return Purchase{
		ID:            p.ID,
		PlantationID:  p.PlantationID,
		BusinessID:    p.BusinessID,
		CreditsBought: p.CreditsBought,
		Date:          p.CreatedAt,
	}
}

// MapPurchasesToDTO maps a list of purchases, never returning nil
func MapPurchasesToDTO(purchases []schema.Purchase) []Purchase {
	out := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, MapPurchaseToDTO(p))
	}
	return out
}

// MapFarmersToDTO maps farmers to the admin view
func MapFarmersToDTO(farmers []schema.Farmer) []Farmer {
	out := make([]Farmer, 0, len(farmers))
	for _, f := range farmers {
		out = append(out, Farmer{
			ID:            f.ID,
			Username:      f.Username,
			Email:         f.Email,
			EmailVerified: f.EmailVerified,
			TotalCredits:  f.TotalCredits,
		})
	}
	return out
}

// MapBusinessesToDTO maps businesses to the admin view
func MapBusinessesToDTO(businesses []schema.Business) []Business {
	out := make([]Business, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, Business{
			ID:               b.ID,
			Username:         b.Username,
			Email:            b.Email,
			EmailVerified:    b.EmailVerified,
			PurchasedCredits: b.PurchasedCredits,
		})
	}
	return out
}
