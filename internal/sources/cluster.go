package sources

import (
	"math"
	"sort"
	"strconv"
)

// Hotspot is one satellite fire detection.
type Hotspot struct {
	Lat        float64
	Lng        float64
	AcqDate    string
	AcqTime    string
	Satellite  string
	Confidence string
	FRP        float64
}

// HotspotCluster groups detections that fall into the same grid cell.
type HotspotCluster struct {
	Key      string
	Hotspots []Hotspot
}

// clusterCell snaps a coordinate to a 0.05° grid (roughly 5 km at
// these latitudes), so nearby detections collapse into one event.
func clusterCell(v float64) float64 {
	return math.Round(v*20) / 20
}

// ClusterKey is the deterministic cell identifier for a detection. It
// doubles as the stable part of the emergency ID, so the float
// formatting must not vary between runs.
func ClusterKey(lat, lng float64) string {
	return formatCell(clusterCell(lat)) + "," + formatCell(clusterCell(lng))
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ClusterHotspots buckets detections by grid cell. Output order is
// sorted by key so repeated runs over the same input agree.
func ClusterHotspots(hotspots []Hotspot) []HotspotCluster {
	buckets := make(map[string][]Hotspot)
	for _, h := range hotspots {
		key := ClusterKey(h.Lat, h.Lng)
		buckets[key] = append(buckets[key], h)
	}

	clusters := make([]HotspotCluster, 0, len(buckets))
	for key, hs := range buckets {
		clusters = append(clusters, HotspotCluster{Key: key, Hotspots: hs})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Key < clusters[j].Key })
	return clusters
}

// Main returns the representative detection: the one with the highest
// radiative power.
func (c HotspotCluster) Main() Hotspot {
	main := c.Hotspots[0]
	for _, h := range c.Hotspots[1:] {
		if h.FRP > main.FRP {
			main = h
		}
	}
	return main
}

// TotalFRP sums the radiative power of every detection in the cluster.
func (c HotspotCluster) TotalFRP() float64 {
	var sum float64
	for _, h := range c.Hotspots {
		sum += h.FRP
	}
	return sum
}

// Centroid is the average position of all detections.
func (c HotspotCluster) Centroid() (lat, lng float64) {
	for _, h := range c.Hotspots {
		lat += h.Lat
		lng += h.Lng
	}
	n := float64(len(c.Hotspots))
	return lat / n, lng / n
}
