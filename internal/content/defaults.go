package content

import "encoding/json"

// Keys lists the content blocks the site renders.
var Keys = []string{"hero", "services", "gallery", "about", "contact"}

var defaults = map[string]json.RawMessage{
	"hero": json.RawMessage(`{
		"title": "Donde los sueños cobran vida",
		"description": "Un espacio sofisticado y alegre diseñado para que cada festejo sea una historia inolvidable. Diversión de calidad para los más pequeños.",
		"image": "https://images.unsplash.com/photo-1530103862676-fa39665a53bb?q=80&w=2070&auto=format&fit=crop"
	}`),
	"services": json.RawMessage(`[
		{"title": "Pelotero Gigante", "description": "Tres niveles de diversión con toboganes y laberintos.", "icon": "🎡"},
		{"title": "Menú Infantil", "description": "Comida saludable y deliciosa preparada especialmente para los peques.", "icon": "🍕"},
		{"title": "Animación Profesional", "description": "Juegos temáticos, magia y mucha energía para que nadie se aburra.", "icon": "🎭"},
		{"title": "Zona Blanda", "description": "Espacio seguro y estimulante para los más pequeñitos de 1 a 3 años.", "icon": "🧸"}
	]`),
	"gallery": json.RawMessage(`[
		"https://images.unsplash.com/photo-1547014762-3a94fb4df70a?q=80&w=1974&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1527529482837-4698179dc6ce?q=80&w=2070&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1561912730-a9f0dca50919?q=80&w=2071&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1517048676732-d65bc937f952?q=80&w=2070&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1533294160622-d5fece3e080d?q=80&w=1974&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1513271922713-33e387c98031?q=80&w=2070&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1519741497674-611481863552?q=80&w=2070&auto=format&fit=crop",
		"https://images.unsplash.com/photo-1471174617910-3e9c04f58ff5?q=80&w=2070&auto=format&fit=crop"
	]`),
	"about": json.RawMessage(`{
		"image1": "https://images.unsplash.com/photo-1519741497674-611481863552?q=80&w=2070&auto=format&fit=crop",
		"image2": "https://images.unsplash.com/photo-1527529482837-4698179dc6ce?q=80&w=2070&auto=format&fit=crop"
	}`),
	"contact": json.RawMessage(`{
		"title": "¿Tenés alguna duda?",
		"subtitle": "Estamos para ayudarte a que el festejo sea perfecto.",
		"address": "Av. Principal 1234, CABA",
		"phone": "+54 9 11 2233 4455",
		"instagram": "@mundomagico_salon",
		"image": "https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6c3?q=80&w=2070&auto=format&fit=crop"
	}`),
}

// Default returns the built-in value for key.
func Default(key string) (json.RawMessage, bool) {
	v, ok := defaults[key]
	return v, ok
}
