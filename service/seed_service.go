package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	model "github.com/caseboard/caseboard/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedService loads the static reference and fact data the dashboard serves.
// Seed files are CSVs, read from SEED_DIR or, when SEED_S3_BUCKET is set,
// from an S3-compatible bucket.
type SeedService struct {
	db       *gorm.DB
	s3Client *s3.S3
	search   *SearchService
}

func NewSeedService(db *gorm.DB, search *SearchService) (*SeedService, error) {
	svc := &SeedService{db: db, search: search}

	if os.Getenv("SEED_S3_BUCKET") == "" {
		return svc, nil
	}

	region := os.Getenv("SEED_S3_REGION")
	endpoint := os.Getenv("SEED_S3_ENDPOINT")
	accessKey := os.Getenv("SEED_S3_ACCESS_KEY")
	secretKey := os.Getenv("SEED_S3_SECRET_KEY")
	if region == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("missing required S3 configuration environment variables")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	svc.s3Client = s3.New(sess)
	return svc, nil
}

// readSeedFile fetches one seed CSV from the bucket or the local seed dir.
func (s *SeedService) readSeedFile(name string) ([][]string, error) {
	var raw []byte

	if s.s3Client != nil {
		bucket := os.Getenv("SEED_S3_BUCKET")
		out, err := s.s3Client.GetObject(&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(name),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s from S3: %w", name, err)
		}
		defer out.Body.Close()
		raw, err = io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from S3: %w", name, err)
		}
	} else {
		dir := os.Getenv("SEED_DIR")
		if dir == "" {
			dir = "db/seed"
		}
		var err error
		raw, err = os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", name, err)
		}
	}

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("seed file %s is empty", name)
	}
	return records[1:], nil // Drop the header row
}

// LoadSeedData clears and repopulates companies, industries and
// legal_actions, then indexes the actions for search. The whole load runs
// in one transaction so a bad file leaves the previous data intact.
func (s *SeedService) LoadSeedData() error {
	companies, err := s.readSeedFile("companies.csv")
	if err != nil {
		return err
	}
	industries, err := s.readSeedFile("industries.csv")
	if err != nil {
		return err
	}
	actions, err := s.readSeedFile("legal_actions.csv")
	if err != nil {
		return err
	}

	companyIDs := make(map[string]string)
	industryIDs := make(map[string]string)
	var indexed []model.LegalAction
	indexNames := make(map[string][2]string)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Facts first so the FK rows can go.
		if err := tx.Where("1 = 1").Delete(&model.LegalAction{}).Error; err != nil {
			return fmt.Errorf("failed to clear legal actions: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.Company{}).Error; err != nil {
			return fmt.Errorf("failed to clear companies: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.Industry{}).Error; err != nil {
			return fmt.Errorf("failed to clear industries: %w", err)
		}

		for _, rec := range companies {
			if len(rec) < 1 || strings.TrimSpace(rec[0]) == "" {
				continue
			}
			c := model.Company{Name: strings.TrimSpace(rec[0]), CreatedAt: time.Now()}
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("failed to insert company %s: %w", c.Name, err)
			}
			companyIDs[c.Name] = c.ID
		}
		log.Printf("[LoadSeedData] Loaded %d companies", len(companyIDs))

		for _, rec := range industries {
			if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
				continue
			}
			ind := model.Industry{
				Name:      strings.TrimSpace(rec[0]),
				Code:      strings.TrimSpace(rec[1]),
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&ind).Error; err != nil {
				return fmt.Errorf("failed to insert industry %s: %w", ind.Name, err)
			}
			industryIDs[ind.Name] = ind.ID
		}
		log.Printf("[LoadSeedData] Loaded %d industries", len(industryIDs))

		count := 0
		for i, rec := range actions {
			// company,industry,action_type,title,status,date,settlement_amount,settlement_currency,reference_url
			if len(rec) < 9 {
				log.Printf("[LoadSeedData] Skipping malformed action row %d", i+1)
				continue
			}
			companyID, ok := companyIDs[strings.TrimSpace(rec[0])]
			if !ok {
				return fmt.Errorf("action row %d references unknown company %q", i+1, rec[0])
			}
			industryID, ok := industryIDs[strings.TrimSpace(rec[1])]
			if !ok {
				return fmt.Errorf("action row %d references unknown industry %q", i+1, rec[1])
			}
			date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[5]))
			if err != nil {
				return fmt.Errorf("action row %d has invalid date %q: %w", i+1, rec[5], err)
			}

			amount := 0.0
			if v := strings.TrimSpace(rec[6]); v != "" {
				amount, err = strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("action row %d has invalid settlement amount %q: %w", i+1, rec[6], err)
				}
			}

			refs := []byte("[]")
			if url := strings.TrimSpace(rec[8]); url != "" {
				refs, _ = json.Marshal([]string{url})
			}

			action := model.LegalAction{
				CompanyID:          companyID,
				IndustryID:         industryID,
				ActionType:         strings.TrimSpace(rec[2]),
				Title:              strings.TrimSpace(rec[3]),
				Status:             strings.TrimSpace(rec[4]),
				Date:               date,
				SettlementAmount:   amount,
				SettlementCurrency: strings.TrimSpace(rec[7]),
				SourceRefs:         datatypes.JSON(refs),
				CreatedAt:          time.Now(),
				UpdatedAt:          time.Now(),
			}
			if err := tx.Create(&action).Error; err != nil {
				return fmt.Errorf("failed to insert action %s: %w", action.Title, err)
			}
			indexed = append(indexed, action)
			indexNames[action.ID] = [2]string{rec[0], rec[1]}
			count++
		}
		log.Printf("[LoadSeedData] Loaded %d legal actions", count)
		return nil
	})
	if err != nil {
		return err
	}

	// Index outside the transaction; search is best-effort.
	if s.search != nil {
		for _, action := range indexed {
			names := indexNames[action.ID]
			if err := s.search.IndexLegalAction(action, names[0], names[1]); err != nil {
				log.Printf("[LoadSeedData] Indexing error for %s: %v", action.ID, err)
			}
		}
	}

	log.Println("[LoadSeedData] Seed data loading completed")
	return nil
}
