package influxhelper

import (
	"fmt"
	"strconv"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"

	"github.com/epargneops/epargneops/internal/banking"
	"github.com/epargneops/epargneops/internal/config"
)

func CreateInfluxClient(secrets config.InfluxSecrets) (influx.Client, error) {
	return influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     secrets.InfluxEndpoint,
		Username: secrets.InfluxUsername,
		Password: secrets.InfluxPassword,
	})
}

func EnsureDatabase(influxClient influx.Client, name string) error {
	createCommand := fmt.Sprintf("CREATE DATABASE %s", name)

	q := influx.NewQuery(createCommand, "", "")
	if response, err := influxClient.Query(q); err == nil && response.Error() != nil {
		return response.Error()
	}
	return nil
}

// WriteBalancePoints pushes one point per account so dashboards get the
// balance time series without querying the sql histories.
func WriteBalancePoints(influxClient influx.Client, database, measurement string, accounts []banking.Account, at time.Time) error {
	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("Error creating InfluxDB point batch: %s", err.Error())
	}

	for _, account := range accounts {
		tags := map[string]string{
			"vendorId": account.VendorID,
			"name":     account.Label,
			"type":     account.Type,
			"currency": account.Currency,
			"balance":  strconv.FormatFloat(account.Balance, 'f', 2, 64),
		}
		fields := map[string]interface{}{
			"balance": account.Balance,
		}

		pt, err := influx.NewPoint(measurement, tags, fields, at)
		if err != nil {
			return fmt.Errorf("Error adding new point: %s", err.Error())
		}

		bp.AddPoint(pt)
	}

	err = influxClient.Write(bp)
	if err != nil {
		return fmt.Errorf("Error writing to influx: %s", err.Error())
	}

	return nil
}
