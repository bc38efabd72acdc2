package devserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wisatamap/internal/poi"
)

// sampleCollection is a handful of Bandar Lampung area attractions used
// when no seed file is given.
const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.2610, -5.4295]},
     "properties": {"nama_objek": "Tugu Adipura", "jenis_obje": "Monumen",
       "alamat": "Jl. Raden Intan, Enggal", "deskripsi": "Tugu di pusat kota Bandar Lampung"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.2436, -5.3838]},
     "properties": {"nama_objek": "Museum Lampung", "jenis_obje": "Museum",
       "alamat": "Jl. ZA Pagar Alam, Rajabasa", "deskripsi": "Museum negeri Provinsi Lampung"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.2532, -5.5155]},
     "properties": {"nama_objek": "Pantai Mutun", "jenis_obje": "Pantai",
       "alamat": "Sukajaya Lempasing, Pesawaran", "deskripsi": "Pantai berpasir putih dengan pulau kecil"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.2271, -5.5542]},
     "properties": {"nama_objek": "Pantai Klara", "jenis_obje": "Pantai",
       "alamat": "Gebang, Padang Cermin", "deskripsi": "Pantai dengan air jernih"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.8167, -5.8667]},
     "properties": {"nama_objek": "Menara Siger", "jenis_obje": "Monumen",
       "alamat": "Bakauheni, Lampung Selatan", "deskripsi": "Menara di ujung selatan Sumatra"}},
    {"type": "Feature",
     "geometry": {"type": "Polygon", "coordinates": [[
       [105.2045, -5.3990], [105.2180, -5.3990], [105.2180, -5.4110],
       [105.2045, -5.4110], [105.2045, -5.3990]]]},
     "properties": {"nama_objek": "Taman Hutan Raya Wan Abdul Rachman", "jenis_obje": "Taman",
       "alamat": "Sumber Agung, Kemiling", "deskripsi": "Kawasan hutan konservasi"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [105.2590, -5.4240]},
     "properties": {"nama_objek": "Taman Gajah", "jenis_obje": "Taman",
       "alamat": "Jl. Sriwijaya, Enggal", "deskripsi": "Taman kota dengan patung gajah"}}
  ]
}`

// Sample returns the built-in seed features
func Sample() []*poi.Feature {
	features, err := poi.DecodeCollection([]byte(sampleCollection))
	if err != nil {
		panic(fmt.Sprintf("devserver: bad sample collection: %v", err))
	}
	return features
}

// LoadSeed reads features from a GeoJSON or shapefile path. An empty path
// returns the built-in sample.
func LoadSeed(path string) ([]*poi.Feature, error) {
	if path == "" {
		return Sample(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return poi.ShapefileSource{Path: path}.Fetch(context.Background())
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return poi.DecodeCollection(data)
	}
}
