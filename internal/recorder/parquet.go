package recorder

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type tickParquetRow struct {
	TimeS     int64   `parquet:"name=time_s, type=INT64"`
	DistanceM int64   `parquet:"name=distance_m, type=INT64"`
	PowerW    int64   `parquet:"name=power_w, type=INT64"`
	Ready     bool    `parquet:"name=ready, type=BOOLEAN"`
	SpeedMPS  float64 `parquet:"name=speed_mps, type=DOUBLE"`
	AvgPowerW int64   `parquet:"name=avg_power_w, type=INT64"`
	Phase     string  `parquet:"name=phase, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Workout   string  `parquet:"name=workout, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SecsLeft  int64   `parquet:"name=secs_left, type=INT64"`
	EstEndM   int64   `parquet:"name=est_end_m, type=INT64"`
	Actions   string  `parquet:"name=actions, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func encodeParquet(rows []Row) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(tickParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := tickParquetRow{
			TimeS:     int64(r.TimeS),
			DistanceM: int64(r.DistanceM),
			PowerW:    int64(r.PowerW),
			Ready:     r.Ready,
			SpeedMPS:  r.SpeedMPS,
			AvgPowerW: int64(r.AvgPowerW),
			Phase:     r.Phase.String(),
			Workout:   r.Workout,
			SecsLeft:  int64(r.SecsLeft),
			EstEndM:   int64(r.EstEndM),
			Actions:   actionsColumn(r.Actions),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
