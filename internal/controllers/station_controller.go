package controllers

import (
	"encoding/binary"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rail_booker/internal/config"
	"rail_booker/internal/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// parsePointGeometry parses a GeoJSON string into WKB bytes for storage.
func parsePointGeometry(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON renders stored WKB bytes back as a GeoJSON string.
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toStationResponse(station models.Station) gin.H {
	location, _ := convertWKBToGeoJSON(station.Location)
	return gin.H{
		"id":         station.ID,
		"station_no": station.StationNo,
		"name":       station.Name,
		"location":   location,
	}
}

// ListStations returns the station catalog, public.
func ListStations(c *gin.Context) {
	var stations []models.Station
	if err := config.DB.Find(&stations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing stations: " + err.Error()})
		return
	}

	out := make([]gin.H, 0, len(stations))
	for _, s := range stations {
		out = append(out, toStationResponse(s))
	}
	respondOK(c, gin.H{"stations": out})
}

// CreateStation adds a station, Train Admin only. Location is an optional
// GeoJSON point.
func CreateStation(c *gin.Context) {
	var input struct {
		StationNo string `json:"station_no"`
		Name      string `json:"name"`
		Location  string `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.StationNo == "" || input.Name == "" {
		respondFail(c, "必须设置站点编号和站点名")
		return
	}

	var count int64
	config.DB.Model(&models.Station{}).Where("station_no = ?", input.StationNo).Count(&count)
	if count > 0 {
		respondFail(c, "站点编号已存在")
		return
	}

	location, err := parsePointGeometry(input.Location)
	if err != nil {
		logrus.WithError(err).Warn("CreateStation: invalid location geometry")
		respondFail(c, "站点坐标格式不正确")
		return
	}

	station := models.Station{
		StationNo: input.StationNo,
		Name:      input.Name,
		Location:  location,
	}
	if err := config.DB.Create(&station).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create station: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "添加站点成功", "station_id": station.ID})
}
