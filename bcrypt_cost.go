//go:build !race

package caseauth

func passwordHashCost() int {
	return bcryptCost
}
