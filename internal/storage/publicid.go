package storage

import "regexp"

// Delivery URLs carry a version segment followed by the public id and an image
// extension, e.g. https://media.example.com/shop/v1712345678/products/p_1.jpg.
var publicIDPattern = regexp.MustCompile(`/v\d+/(.+)\.(jpg|jpeg|png|gif|webp)$`)

// ExtractPublicID recovers the media host identifier from a stored image URL.
// It reports false when the URL does not match the expected delivery shape.
func ExtractPublicID(url string) (string, bool) {
	match := publicIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
