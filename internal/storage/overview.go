package storage

// Overview is a high-level count of what the store holds.
type Overview struct {
	Fighters int     `db:"fighters"`
	Events   int     `db:"events"`
	Fights   int     `db:"fights"`
	Runs     int     `db:"runs"`
	Earliest *string `db:"earliest"`
	Latest   *string `db:"latest"`
}

// GetOverview returns record counts and the event date range.
func (db *DB) GetOverview() (*Overview, error) {
	var ov Overview
	err := db.conn.Get(&ov, `
		SELECT
			(SELECT COUNT(*) FROM fighters) AS fighters,
			(SELECT COUNT(*) FROM events)   AS events,
			(SELECT COUNT(*) FROM fights)   AS fights,
			(SELECT COUNT(*) FROM runs)     AS runs,
			(SELECT MIN(event_date) FROM events) AS earliest,
			(SELECT MAX(event_date) FROM events) AS latest`)
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// GroupCount is one row of a grouped fight count.
type GroupCount struct {
	Key    string `db:"key"`
	Fights int    `db:"fights"`
}

// WeightClassCounts returns fight counts per weight class, largest first.
func (db *DB) WeightClassCounts() ([]GroupCount, error) {
	var out []GroupCount
	err := db.conn.Select(&out, `
		SELECT weight_class AS key, COUNT(*) AS fights
		FROM fights GROUP BY weight_class ORDER BY fights DESC, key`)
	return out, err
}

// ResultCounts returns fight counts per stored result code.
func (db *DB) ResultCounts() (map[int]int, error) {
	var rows []struct {
		Result int `db:"result"`
		Fights int `db:"fights"`
	}
	if err := db.conn.Select(&rows, `SELECT result, COUNT(*) AS fights FROM fights GROUP BY result`); err != nil {
		return nil, err
	}
	out := make(map[int]int, len(rows))
	for _, r := range rows {
		out[r.Result] = r.Fights
	}
	return out, nil
}
